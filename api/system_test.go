package emucore

import "testing"

func TestSystemInfoSizes(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		wantBytes  int
		wantWidth  int
		wantHeight int
	}{
		{"NES", 256, 240, 256 * 240 * 4, 768, 720},
		{"Square", 160, 160, 160 * 160 * 4, 480, 480},
		{"Empty", 0, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := SystemInfo{ScreenWidth: tt.width, ScreenHeight: tt.height}
			if got := info.FrameBytes(); got != tt.wantBytes {
				t.Errorf("FrameBytes() = %d, want %d", got, tt.wantBytes)
			}
			w, h := info.SurfaceSize()
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("SurfaceSize() = (%d, %d), want (%d, %d)", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}
