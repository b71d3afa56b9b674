package standalone

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"math/rand/v2"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/user-none/eblitnes/pump"
)

const fpsFontSize = 20

var (
	fontOnce sync.Once
	fpsFace  text.Face
)

// loadFPSFace loads the overlay face from goregular.TTF (once). Returns
// nil if the font cannot be parsed.
func loadFPSFace() text.Face {
	fontOnce.Do(func() {
		source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			log.Printf("Warning: failed to load font: %v", err)
			return
		}
		fpsFace = &text.GoTextFace{Source: source, Size: fpsFontSize}
	})
	return fpsFace
}

// FramebufferRenderer owns the ebiten offscreen buffer and draws frames
// onto the current target with nearest-neighbor scaling. It implements
// pump.Renderer.
type FramebufferRenderer struct {
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
	target    *ebiten.Image
	showFPS   bool
}

// NewFramebufferRenderer creates a renderer. When showFPS is set the
// measured frame rate is drawn in the top-left corner.
func NewFramebufferRenderer(showFPS bool) *FramebufferRenderer {
	return &FramebufferRenderer{showFPS: showFPS}
}

// SetTarget selects the image subsequent Render calls draw into.
func (r *FramebufferRenderer) SetTarget(screen *ebiten.Image) {
	r.target = screen
}

// Render implements pump.Renderer.
func (r *FramebufferRenderer) Render(buf *pump.PixelBuffer, fps int) {
	if r.target == nil {
		return
	}
	r.DrawFramebuffer(r.target, buf.Pix, buf.Width, buf.Height)
	if r.showFPS {
		drawFPS(r.target, fps)
	}
}

// DrawFramebuffer renders RGBA pixel data to the screen, scaled by the
// largest whole factor that fits and centered.
func (r *FramebufferRenderer) DrawFramebuffer(screen *ebiten.Image, pixels []byte, width, height int) {
	if width == 0 || height == 0 || len(pixels) < width*height*4 {
		return
	}

	if r.offscreen == nil || r.offscreen.Bounds().Dx() != width || r.offscreen.Bounds().Dy() != height {
		r.offscreen = ebiten.NewImage(width, height)
	}
	r.offscreen.WritePixels(pixels[:width*height*4])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := integerScale(screenW, screenH, width, height)
	offsetX := float64(screenW-width*scale) / 2
	offsetY := float64(screenH-height*scale) / 2

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(float64(scale), float64(scale))
	r.drawOpts.GeoM.Translate(offsetX, offsetY)
	r.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(r.offscreen, &r.drawOpts)
}

// integerScale returns the largest whole scale at which a w x h image
// fits in a screenW x screenH target, at least 1.
func integerScale(screenW, screenH, w, h int) int {
	return max(1, min(screenW/w, screenH/h))
}

// drawFPS draws the frame rate as a black shadow under white text.
func drawFPS(screen *ebiten.Image, fps int) {
	drawOutlined(screen, fmt.Sprintf("%d FPS", fps), 0, 0)
}

// drawHint draws msg near the bottom-left of screen.
func drawHint(screen *ebiten.Image, msg string) {
	y := float64(screen.Bounds().Dy()) - 2*fpsFontSize
	drawOutlined(screen, msg, fpsFontSize/2, y)
}

// drawOutlined draws label at (x, y) twice: black offset by one pixel,
// then white.
func drawOutlined(screen *ebiten.Image, label string, x, y float64) {
	face := loadFPSFace()
	if face == nil {
		return
	}

	shadow := &text.DrawOptions{}
	shadow.GeoM.Translate(x+1, y+1)
	shadow.ColorScale.ScaleWithColor(color.Black)
	text.Draw(screen, label, face, shadow)

	fg := &text.DrawOptions{}
	fg.GeoM.Translate(x, y)
	fg.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, label, face, fg)
}

// staticScreen is the noise shown until an engine is running.
type staticScreen struct {
	buf *pump.PixelBuffer
	rng *rand.Rand
}

func newStaticScreen(width, height int) *staticScreen {
	return &staticScreen{
		buf: pump.NewPixelBuffer(width, height),
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Update regenerates the noise.
func (s *staticScreen) Update() {
	fillStatic(s.buf.Pix, s.rng)
}

// Draw scales the noise onto screen.
func (s *staticScreen) Draw(screen *ebiten.Image, r *FramebufferRenderer) {
	r.DrawFramebuffer(screen, s.buf.Pix, s.buf.Width, s.buf.Height)
}

// fillStatic writes opaque random gray pixels.
func fillStatic(pix []byte, rng *rand.Rand) {
	for i := 0; i+3 < len(pix); i += 4 {
		val := byte(rng.IntN(256))
		pix[i] = val
		pix[i+1] = val
		pix[i+2] = val
		pix[i+3] = 255
	}
}
