package emucore

// SurfaceScale is the integer factor applied to the native resolution
// when sizing the output surface. Integer scaling keeps nearest-neighbor
// output uniform.
const SurfaceScale = 3

// SystemInfo describes an emulated system for host configuration.
type SystemInfo struct {
	Name         string
	ConsoleName  string
	Extensions   []string
	ScreenWidth  int
	ScreenHeight int
	FPS          int
	Players      int
	MinROMSize   int
	DataDirName  string
	CoreName     string
	CoreVersion  string
}

// FrameBytes returns the size in bytes of one RGBA frame.
func (s SystemInfo) FrameBytes() int {
	return s.ScreenWidth * s.ScreenHeight * 4
}

// SurfaceSize returns the output surface dimensions for the system.
func (s SystemInfo) SurfaceSize() (width, height int) {
	return s.ScreenWidth * SurfaceScale, s.ScreenHeight * SurfaceScale
}
