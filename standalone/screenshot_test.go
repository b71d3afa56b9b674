package standalone

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user-none/eblitnes/pump"
)

func TestWriteScreenshot(t *testing.T) {
	buf := pump.NewPixelBuffer(4, 2)
	// Pixel (1,1) is pure red.
	i := (1*buf.Width + 1) * 4
	copy(buf.Pix[i:], []byte{0xFF, 0, 0, 0xFF})

	dir := filepath.Join(t.TempDir(), "shots")
	path, err := writeScreenshot(dir, buf, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("writeScreenshot failed: %v", err)
	}
	if filepath.Base(path) != "1700000000.png" {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open screenshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode screenshot: %v", err)
	}

	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 4x2", b)
	}
	got := color.RGBAModel.Convert(img.At(1, 1)).(color.RGBA)
	if got != (color.RGBA{0xFF, 0, 0, 0xFF}) {
		t.Errorf("pixel (1,1) = %v, want red", got)
	}
}

func TestWriteScreenshotCopiesBuffer(t *testing.T) {
	buf := pump.NewPixelBuffer(1, 1)
	if _, err := writeScreenshot(t.TempDir(), buf, time.Unix(1, 0)); err != nil {
		t.Fatalf("writeScreenshot failed: %v", err)
	}
	if buf.Pix[0] != 0 {
		t.Error("screenshot modified the frame buffer")
	}
}
