package ines

import (
	"errors"
	"testing"
)

// buildImage creates an iNES image with the given bank counts and flags.
// PRG bytes are 0xAA and CHR bytes 0x55 so the sections are distinguishable.
func buildImage(prg, chr int, flags6, flags7 byte) []byte {
	size := HeaderSize + prg*PRGBankSize + chr*CHRBankSize
	trainer := flags6&0x04 != 0
	if trainer {
		size += TrainerSize
	}
	data := make([]byte, size)
	copy(data, "NES\x1a")
	data[4] = byte(prg)
	data[5] = byte(chr)
	data[6] = flags6
	data[7] = flags7

	off := HeaderSize
	if trainer {
		for i := 0; i < TrainerSize; i++ {
			data[off+i] = 0xEE
		}
		off += TrainerSize
	}
	for i := 0; i < prg*PRGBankSize; i++ {
		data[off+i] = 0xAA
	}
	off += prg * PRGBankSize
	for i := 0; i < chr*CHRBankSize; i++ {
		data[off+i] = 0x55
	}
	return data
}

func TestParseMinimal(t *testing.T) {
	data := buildImage(1, 0, 0, 0)
	if len(data) != MinImageSize {
		t.Fatalf("minimal image is %d bytes, want %d", len(data), MinImageSize)
	}
	cart, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cart.PRG) != PRGBankSize {
		t.Errorf("PRG length = %d", len(cart.PRG))
	}
	if len(cart.CHR) != 0 || !cart.Header.UsesCHRRAM() {
		t.Errorf("expected CHR RAM cartridge, CHR length = %d", len(cart.CHR))
	}
	if cart.Header.PRGRAMSize != PRGRAMUnit {
		t.Errorf("PRGRAMSize = %d, want %d", cart.Header.PRGRAMSize, PRGRAMUnit)
	}
}

func TestParseHeaderFields(t *testing.T) {
	tests := []struct {
		name      string
		flags6    byte
		flags7    byte
		mapper    uint8
		mirroring Mirroring
		battery   bool
	}{
		{"nrom horizontal", 0x00, 0x00, 0, MirrorHorizontal, false},
		{"vertical", 0x01, 0x00, 0, MirrorVertical, false},
		{"four screen wins", 0x09, 0x00, 0, MirrorFourScreen, false},
		{"mmc1 battery", 0x12, 0x00, 1, MirrorHorizontal, true},
		{"high nibble mapper", 0x40, 0x10, 0x14, MirrorHorizontal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(buildImage(2, 1, tt.flags6, tt.flags7))
			if err != nil {
				t.Fatalf("ParseHeader failed: %v", err)
			}
			if h.Mapper != tt.mapper {
				t.Errorf("Mapper = %d, want %d", h.Mapper, tt.mapper)
			}
			if h.Mirroring != tt.mirroring {
				t.Errorf("Mirroring = %s, want %s", h.Mirroring, tt.mirroring)
			}
			if h.Battery != tt.battery {
				t.Errorf("Battery = %t, want %t", h.Battery, tt.battery)
			}
			if h.PRGBanks != 2 || h.CHRBanks != 1 {
				t.Errorf("banks = %d/%d, want 2/1", h.PRGBanks, h.CHRBanks)
			}
		})
	}
}

func TestParseSkipsTrainer(t *testing.T) {
	cart, err := Parse(buildImage(1, 1, 0x04, 0))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cart.Header.Trainer {
		t.Error("Trainer flag not set")
	}
	if cart.PRG[0] != 0xAA || cart.PRG[len(cart.PRG)-1] != 0xAA {
		t.Errorf("PRG not aligned after trainer: first=%#x", cart.PRG[0])
	}
	if cart.CHR[0] != 0x55 || len(cart.CHR) != CHRBankSize {
		t.Errorf("CHR not aligned after trainer: first=%#x len=%d", cart.CHR[0], len(cart.CHR))
	}
}

func TestParseErrors(t *testing.T) {
	badMagic := buildImage(1, 0, 0, 0)
	badMagic[3] = 0

	noPRG := buildImage(1, 0, 0, 0)
	noPRG[4] = 0

	truncated := buildImage(1, 1, 0, 0)
	truncated = truncated[:len(truncated)-1]

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTooSmall},
		{"short header", []byte("NES\x1a"), ErrTooSmall},
		{"bad magic", badMagic, ErrBadMagic},
		{"no prg", noPRG, ErrNoPRG},
		{"truncated chr", truncated, ErrTruncated},
		{"header only", buildImage(1, 0, 0, 0)[:HeaderSize], ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeaderString(t *testing.T) {
	h, err := ParseHeader(buildImage(2, 1, 0x01, 0))
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	want := "mapper 0, PRG 32 KiB, CHR 8 KiB, vertical mirroring, battery=false"
	if got := h.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
