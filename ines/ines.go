// Package ines parses cartridge images in the iNES format.
package ines

import (
	"errors"
	"fmt"
)

const (
	// HeaderSize is the size of the iNES header in bytes.
	HeaderSize = 16

	// TrainerSize is the size of the optional trainer block.
	TrainerSize = 512

	// PRGBankSize is the size of one PRG ROM bank.
	PRGBankSize = 16 * 1024

	// CHRBankSize is the size of one CHR ROM bank.
	CHRBankSize = 8 * 1024

	// PRGRAMUnit is the size unit of the PRG RAM field.
	PRGRAMUnit = 8 * 1024

	// MinImageSize is the smallest image that can hold a header and one PRG bank.
	MinImageSize = HeaderSize + PRGBankSize
)

var magic = [4]byte{'N', 'E', 'S', 0x1A}

var (
	// ErrTooSmall is returned when the image cannot hold a header.
	ErrTooSmall = errors.New("image too small for iNES header")

	// ErrBadMagic is returned when the header signature is missing.
	ErrBadMagic = errors.New("missing iNES signature")

	// ErrNoPRG is returned when the header declares no PRG ROM.
	ErrNoPRG = errors.New("header declares no PRG ROM")

	// ErrTruncated is returned when the image is shorter than the header declares.
	ErrTruncated = errors.New("image truncated")
)

// Mirroring is the nametable arrangement wired on the cartridge.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	default:
		return fmt.Sprintf("Mirroring(%d)", uint8(m))
	}
}

// Header holds the decoded fields of an iNES header.
type Header struct {
	PRGBanks   int
	CHRBanks   int
	PRGRAMSize int
	Mapper     uint8
	Mirroring  Mirroring
	Battery    bool
	Trainer    bool
}

// UsesCHRRAM reports whether the cartridge has no CHR ROM and relies on RAM.
func (h Header) UsesCHRRAM() bool {
	return h.CHRBanks == 0
}

// ImageSize returns the total image size the header declares.
func (h Header) ImageSize() int {
	n := HeaderSize + h.PRGBanks*PRGBankSize + h.CHRBanks*CHRBankSize
	if h.Trainer {
		n += TrainerSize
	}
	return n
}

func (h Header) String() string {
	return fmt.Sprintf("mapper %d, PRG %d KiB, CHR %d KiB, %s mirroring, battery=%t",
		h.Mapper, h.PRGBanks*PRGBankSize/1024, h.CHRBanks*CHRBankSize/1024, h.Mirroring, h.Battery)
}

// Cartridge is a parsed image. PRG and CHR alias the input slice.
type Cartridge struct {
	Header Header
	PRG    []byte
	CHR    []byte
}

// ParseHeader decodes the 16-byte header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTooSmall
	}
	if [4]byte(data[0:4]) != magic {
		return Header{}, ErrBadMagic
	}

	flags6, flags7 := data[6], data[7]
	h := Header{
		PRGBanks: int(data[4]),
		CHRBanks: int(data[5]),
		Mapper:   (flags6 >> 4) | (flags7 & 0xF0),
		Battery:  flags6&0x02 != 0,
		Trainer:  flags6&0x04 != 0,
	}

	switch {
	case flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}

	// A zero PRG RAM field means one unit for compatibility.
	h.PRGRAMSize = int(data[8]) * PRGRAMUnit
	if h.PRGRAMSize == 0 {
		h.PRGRAMSize = PRGRAMUnit
	}

	if h.PRGBanks == 0 {
		return Header{}, ErrNoPRG
	}
	return h, nil
}

// Parse decodes a complete image. The trainer, if present, is skipped.
func Parse(data []byte) (*Cartridge, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < h.ImageSize() {
		return nil, fmt.Errorf("%w: have %d bytes, header declares %d", ErrTruncated, len(data), h.ImageSize())
	}

	offset := HeaderSize
	if h.Trainer {
		offset += TrainerSize
	}
	prgEnd := offset + h.PRGBanks*PRGBankSize
	chrEnd := prgEnd + h.CHRBanks*CHRBankSize

	return &Cartridge{
		Header: h,
		PRG:    data[offset:prgEnd:prgEnd],
		CHR:    data[prgEnd:chrEnd:chrEnd],
	}, nil
}
