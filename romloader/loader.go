// Package romloader resolves ROM sources into raw image bytes, unpacking
// compressed archives (ZIP, 7z, gzip, tar.gz, RAR) when needed.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// Maximum ROM size (8MB safety limit)
const maxROMSize = 8 * 1024 * 1024

// ErrNoROMFile is returned when no ROM file is found in an archive
var ErrNoROMFile = errors.New("no ROM file found in archive")

// ErrUnsupportedFormat is returned for unrecognized file formats
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds size limit
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// Source provides the bytes of a ROM image or an archive containing one.
type Source interface {
	// Name is the file name used for extension matching and display.
	Name() string

	// Open returns a reader over the full contents.
	Open() (io.ReadCloser, error)
}

type fileSource string

// FileSource returns a Source reading the file at path.
func FileSource(path string) Source {
	return fileSource(path)
}

func (f fileSource) Name() string                 { return filepath.Base(string(f)) }
func (f fileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an in-memory image.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (b bytesSource) Name() string { return b.name }
func (b bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// formatType represents the detected file format
type formatType int

const (
	formatUnknown formatType = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Read resolves src into ROM bytes. Archives are detected by magic bytes
// and the first entry matching one of extensions is extracted. Returns
// the ROM data and its file name.
func Read(src Source, extensions []string) ([]byte, string, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	// Archives are read whole; the limit leaves headroom for compression overhead.
	raw, err := readLimited(rc, 2*maxROMSize)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}

	name := src.Name()
	switch detectFormat(raw, name, extensions) {
	case formatRaw:
		if len(raw) > maxROMSize {
			return nil, "", ErrFileTooLarge
		}
		return raw, name, nil
	case formatZIP:
		return extractFromZIP(raw, extensions)
	case format7z:
		return extractFrom7z(raw, extensions)
	case formatGzip:
		return extractFromGzip(raw, name, extensions)
	case formatRAR:
		return extractFromRAR(raw, extensions)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Load reads a ROM from a file path. See Read.
func Load(path string, extensions []string) ([]byte, string, error) {
	return Read(FileSource(path), extensions)
}

// detectFormat determines the file format based on magic bytes and the
// name's extension.
func detectFormat(header []byte, name string, extensions []string) formatType {
	ext := strings.ToLower(filepath.Ext(name))

	// Check magic bytes first (more reliable)
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	// Fall back to extension for archive formats
	switch ext {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	if isROMFile(name, extensions) {
		return formatRaw
	}
	return formatUnknown
}

// isROMFile checks if a filename has one of the given ROM extensions (case-insensitive)
func isROMFile(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// limitedRead reads from r up to maxROMSize bytes, returning an error if exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	return readLimited(r, maxROMSize)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
