// Package pump drives an emulation engine one video frame per scheduler
// tick and hands the resulting pixels to a renderer.
package pump

import (
	"fmt"
	"sync/atomic"
	"time"

	emucore "github.com/user-none/eblitnes/api"
)

// PixelBuffer is one RGBA frame, 4 bytes per pixel, row-major.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
}

// NewPixelBuffer allocates a zeroed buffer for width x height pixels.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("pump: invalid buffer size %dx%d", width, height))
	}
	return &PixelBuffer{
		Pix:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
	}
}

// Stride returns the number of bytes per row.
func (b *PixelBuffer) Stride() int {
	return b.Width * 4
}

// Renderer draws a frame and the most recently measured frame rate.
type Renderer interface {
	Render(buf *PixelBuffer, fps int)
}

// Clock supplies wall-clock time for frame-rate measurement.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Pump advances an engine by one frame per tick and measures the
// achieved frame rate once per second.
type Pump struct {
	engine emucore.Engine
	buf    *PixelBuffer
	clock  Clock

	busy atomic.Bool

	frames     int
	windowFrom time.Time

	// Read from other goroutines by monitors.
	fps   atomic.Int64
	total atomic.Uint64
}

// New creates a pump over engine writing into buf. The FPS measurement
// window starts immediately.
func New(engine emucore.Engine, buf *PixelBuffer, clock Clock) *Pump {
	if buf == nil || len(buf.Pix) != buf.Width*buf.Height*4 {
		panic("pump: pixel buffer does not match its dimensions")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pump{
		engine:     engine,
		buf:        buf,
		clock:      clock,
		windowFrom: clock.Now(),
	}
}

// OnTick advances the engine by exactly one frame and updates the frame
// counter. A tick that arrives while a previous frame advance is still
// running is rejected and OnTick returns false.
func (p *Pump) OnTick() bool {
	if !p.busy.CompareAndSwap(false, true) {
		return false
	}
	defer p.busy.Store(false)

	p.engine.AdvanceOneFrame(p.buf.Pix)
	p.frames++
	p.total.Add(1)

	now := p.clock.Now()
	if now.Sub(p.windowFrom) >= time.Second {
		p.fps.Store(int64(p.frames))
		p.frames = 0
		p.windowFrom = now
	}
	return true
}

// OnDraw hands the current frame and frame rate to r.
func (p *Pump) OnDraw(r Renderer) {
	r.Render(p.buf, p.FPS())
}

// FPS returns the frame count captured at the end of the last complete
// one-second window, or 0 before the first window closes.
func (p *Pump) FPS() int {
	return int(p.fps.Load())
}

// Frames returns the total number of frames advanced.
func (p *Pump) Frames() uint64 {
	return p.total.Load()
}

// Buffer returns the pixel buffer the engine writes into.
func (p *Pump) Buffer() *PixelBuffer {
	return p.buf
}
