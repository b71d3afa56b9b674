package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testExtensions is a common set of ROM extensions used across tests
var testExtensions = []string{".nes"}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("Failed to write gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return buf.Bytes()
}

func tarGzBytes(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var tbuf bytes.Buffer
	tw := tar.NewWriter(&tbuf)
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(data)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("Failed to write tar header: %v", err)
	}
	if _, err := tw.Write(data); err != nil {
		t.Fatalf("Failed to write tar: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	return gzipBytes(t, tbuf.Bytes())
}

func TestReadRaw(t *testing.T) {
	rom := []byte{'N', 'E', 'S', 0x1A, 1, 0}
	data, name, err := Read(BytesSource("game.nes", rom), testExtensions)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Errorf("data mismatch: got %v", data)
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestReadRawExtensionCaseInsensitive(t *testing.T) {
	if _, _, err := Read(BytesSource("GAME.NES", []byte{1, 2, 3}), testExtensions); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
}

func TestReadZip(t *testing.T) {
	rom := []byte("rom-data")
	archive := zipBytes(t, map[string][]byte{"dir/game.nes": rom})

	// Name deliberately lacks an extension: detection is by magic bytes.
	data, name, err := Read(BytesSource("download", archive), testExtensions)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Errorf("data mismatch: got %q", data)
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestReadZipNoROM(t *testing.T) {
	archive := zipBytes(t, map[string][]byte{"readme.txt": []byte("hello")})
	_, _, err := Read(BytesSource("test.zip", archive), testExtensions)
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("expected ErrNoROMFile, got %v", err)
	}
}

func TestReadGzip(t *testing.T) {
	rom := []byte("gzipped rom")
	data, name, err := Read(BytesSource("game.nes.gz", gzipBytes(t, rom)), testExtensions)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Errorf("data mismatch: got %q", data)
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestReadTarGz(t *testing.T) {
	rom := []byte("tarred rom")
	data, name, err := Read(BytesSource("pack.tar.gz", tarGzBytes(t, "roms/game.nes", rom)), testExtensions)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, rom) {
		t.Errorf("data mismatch: got %q", data)
	}
	if name != "game.nes" {
		t.Errorf("name = %q, want game.nes", name)
	}
}

func TestReadTarGzNoROM(t *testing.T) {
	_, _, err := Read(BytesSource("pack.tgz", tarGzBytes(t, "notes.txt", []byte("x"))), testExtensions)
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("expected ErrNoROMFile, got %v", err)
	}
}

func TestReadCorruptArchives(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"bad.7z", append(append([]byte{}, magic7z...), 0, 4, 0, 0, 0, 0)},
		{"bad.rar", append(append([]byte{}, magicRAR...), 0x1A, 0x07, 0x00, 0xFF)},
		{"bad.gz", append(append([]byte{}, magicGzip...), 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Read(BytesSource(tt.name, tt.data), testExtensions); err == nil {
				t.Error("expected error for corrupt archive")
			}
		})
	}
}

func TestReadUnsupported(t *testing.T) {
	_, _, err := Read(BytesSource("notes.txt", []byte("plain text")), testExtensions)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadTooLarge(t *testing.T) {
	data := make([]byte, maxROMSize+1)
	_, _, err := Read(BytesSource("huge.nes", data), testExtensions)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.nes")
	rom := []byte{1, 2, 3, 4}
	if err := os.WriteFile(path, rom, 0644); err != nil {
		t.Fatalf("Failed to write ROM: %v", err)
	}
	data, name, err := Load(path, testExtensions)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, rom) || name != "game.nes" {
		t.Errorf("Load = %v, %q", data, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.nes"), testExtensions)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		file   string
		want   formatType
	}{
		{"zip magic", magicZIP, "x.bin", formatZIP},
		{"empty zip", magicZIPEnd, "x.bin", formatZIP},
		{"7z magic", magic7z, "x.bin", format7z},
		{"gzip magic", magicGzip, "x.bin", formatGzip},
		{"rar magic", magicRAR, "x.bin", formatRAR},
		{"zip ext", []byte{0}, "x.zip", formatZIP},
		{"tgz ext", []byte{0}, "x.tgz", formatGzip},
		{"rom ext", []byte("NES\x1a"), "x.nes", formatRaw},
		{"unknown", []byte{0}, "x.bin", formatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.header, tt.file, testExtensions); got != tt.want {
				t.Errorf("detectFormat = %d, want %d", got, tt.want)
			}
		})
	}
}
