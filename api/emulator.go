package emucore

import "context"

// Engine is the opaque emulation unit driven by the frame pump.
type Engine interface {
	// AdvanceOneFrame runs the machine for one video frame and writes the
	// complete RGBA image into pixels. len(pixels) must equal
	// ScreenWidth*ScreenHeight*4 for the engine's system.
	AdvanceOneFrame(pixels []byte)

	// Controller returns the handle for the given port (0 or 1).
	Controller(port int) ControllerHandle

	// Close releases any resources held by the engine.
	Close()
}

// ControllerHandle is the write side of a standard controller. Each
// setter records whether the button is currently held.
type ControllerHandle interface {
	Up(pressed bool)
	Down(pressed bool)
	Left(pressed bool)
	Right(pressed bool)
	A(pressed bool)
	B(pressed bool)
	Select(pressed bool)
	Start(pressed bool)
}

// Factory creates engine instances and provides system metadata.
type Factory interface {
	// SystemInfo returns system metadata for host configuration.
	SystemInfo() SystemInfo

	// CreateEngine builds an engine from raw ROM bytes. A malformed or
	// unsupported image is reported as an error.
	CreateEngine(ctx context.Context, rom []byte) (Engine, error)
}
