package standalone

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/user-none/eblitnes/pump"
	"github.com/user-none/eblitnes/standalone/storage"
)

// TakeScreenshot saves the frame in buf as a PNG in the screenshots
// directory and returns its path.
func TakeScreenshot(buf *pump.PixelBuffer) (string, error) {
	dir, err := storage.GetScreenshotDir()
	if err != nil {
		return "", err
	}
	return writeScreenshot(dir, buf, time.Now())
}

// writeScreenshot encodes buf into dir, naming the file by the Unix
// timestamp of now.
func writeScreenshot(dir string, buf *pump.PixelBuffer, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	img := &image.RGBA{
		Pix:    append([]byte(nil), buf.Pix...),
		Stride: buf.Stride(),
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.png", now.Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return path, nil
}
