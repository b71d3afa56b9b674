// Package chrcore is a pattern-table viewer engine. It decodes the tile
// graphics stored on an iNES cartridge and composes a complete frame on
// every advance, driven by the standard controller on port 0.
package chrcore

import (
	"context"
	"fmt"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/controller"
	"github.com/user-none/eblitnes/ines"
)

const (
	ScreenWidth  = 256
	ScreenHeight = 240

	// PageSize is the amount of tile data shown at once: two 4 KiB pattern tables.
	PageSize = 8 * 1024

	tileBytes     = 16
	tilesPerTable = 256
	tilesPerPage  = 2 * tilesPerTable
	tableWidth    = 128

	zoomScale = 12
	zoomX     = 8
	zoomY     = 136
	swatchX   = 120
	swatchY   = 136
	swatchW   = 24
)

type rgba [4]byte

var (
	background = rgba{0x10, 0x10, 0x18, 0xFF}
	gridColor  = rgba{0x40, 0x40, 0x50, 0xFF}
	cursorRed  = rgba{0xF8, 0x38, 0x00, 0xFF}
)

// Palettes are drawn from the NES master palette.
var palettes = [][4]rgba{
	{{0x00, 0x00, 0x00, 0xFF}, {0x7C, 0x7C, 0x7C, 0xFF}, {0xBC, 0xBC, 0xBC, 0xFF}, {0xF8, 0xF8, 0xF8, 0xFF}},
	{{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x58, 0xF8, 0xFF}, {0x68, 0x88, 0xFC, 0xFF}, {0xB8, 0xF8, 0xF8, 0xFF}},
	{{0x00, 0x00, 0x00, 0xFF}, {0xA8, 0x10, 0x00, 0xFF}, {0xF8, 0x78, 0x58, 0xFF}, {0xF8, 0xD8, 0x78, 0xFF}},
	{{0x00, 0x00, 0x00, 0xFF}, {0x00, 0x78, 0x00, 0xFF}, {0x58, 0xD8, 0x54, 0xFF}, {0xB8, 0xF8, 0x18, 0xFF}},
}

// Engine renders the cartridge's tile data. It implements emucore.Engine.
type Engine struct {
	cart *ines.Cartridge
	bank *controller.Bank

	prev    controller.State
	page    int
	cursor  int
	palette int
	grid    bool
	prg     bool
	frames  uint64
	closed  bool
}

// New creates an engine for a parsed cartridge. Cartridges without CHR
// ROM start on the PRG view.
func New(cart *ines.Cartridge) *Engine {
	return &Engine{
		cart: cart,
		bank: controller.NewBank(),
		prg:  cart.Header.UsesCHRRAM(),
	}
}

// AdvanceOneFrame applies the controller edges seen since the last frame
// and writes the full frame into pixels.
func (e *Engine) AdvanceOneFrame(pixels []byte) {
	if len(pixels) != ScreenWidth*ScreenHeight*4 {
		panic(fmt.Sprintf("chrcore: pixel buffer is %d bytes, want %d", len(pixels), ScreenWidth*ScreenHeight*4))
	}
	if e.closed {
		fill(pixels, 0, 0, ScreenWidth, ScreenHeight, background)
		return
	}

	state := e.bank.Port(0).Snapshot()
	e.handleInput(state &^ e.prev)
	e.prev = state

	e.render(pixels)
	e.frames++
}

func (e *Engine) handleInput(pressed controller.State) {
	pages := e.Pages()
	switch {
	case pressed.Pressed(controller.ButtonUp):
		e.page = (e.page + pages - 1) % pages
	case pressed.Pressed(controller.ButtonDown):
		e.page = (e.page + 1) % pages
	}
	switch {
	case pressed.Pressed(controller.ButtonLeft):
		e.cursor = (e.cursor + tilesPerPage - 1) % tilesPerPage
	case pressed.Pressed(controller.ButtonRight):
		e.cursor = (e.cursor + 1) % tilesPerPage
	}
	switch {
	case pressed.Pressed(controller.ButtonA):
		e.palette = (e.palette + 1) % len(palettes)
	case pressed.Pressed(controller.ButtonB):
		e.palette = (e.palette + len(palettes) - 1) % len(palettes)
	}
	if pressed.Pressed(controller.ButtonStart) {
		e.grid = !e.grid
	}
	if pressed.Pressed(controller.ButtonSelect) && !e.cart.Header.UsesCHRRAM() {
		e.prg = !e.prg
		e.page = 0
	}
}

// Controller returns the handle for port 0 or 1.
func (e *Engine) Controller(port int) emucore.ControllerHandle {
	return e.bank.Port(port)
}

// Close stops rendering. Further advances fill the frame with the
// background colour and ignore input.
func (e *Engine) Close() {
	e.closed = true
}

// Bank exposes the controller bank the engine reads.
func (e *Engine) Bank() *controller.Bank { return e.bank }

// Page returns the index of the displayed 8 KiB page.
func (e *Engine) Page() int { return e.page }

// Pages returns the number of pages in the current source.
func (e *Engine) Pages() int {
	n := (len(e.source()) + PageSize - 1) / PageSize
	if n == 0 {
		return 1
	}
	return n
}

// Cursor returns the selected tile within the page.
func (e *Engine) Cursor() int { return e.cursor }

// Palette returns the active palette index.
func (e *Engine) Palette() int { return e.palette }

// Grid reports whether tile grid lines are drawn.
func (e *Engine) Grid() bool { return e.grid }

// ShowingPRG reports whether PRG data is being decoded instead of CHR.
func (e *Engine) ShowingPRG() bool { return e.prg }

// Frames returns the number of frames rendered.
func (e *Engine) Frames() uint64 { return e.frames }

func (e *Engine) source() []byte {
	if e.prg {
		return e.cart.PRG
	}
	return e.cart.CHR
}

// tileRow returns the 2bpp pixel values of one row of a tile in the page.
// Tiles past the end of the source decode as color 0.
func (e *Engine) tileRow(tile, row int) [8]uint8 {
	var out [8]uint8
	src := e.source()
	off := e.page*PageSize + tile*tileBytes + row
	if off+8 >= len(src) {
		return out
	}
	lo, hi := src[off], src[off+8]
	for x := 0; x < 8; x++ {
		shift := 7 - x
		out[x] = (lo>>shift)&1 | ((hi>>shift)&1)<<1
	}
	return out
}

func (e *Engine) render(pixels []byte) {
	fill(pixels, 0, 0, ScreenWidth, ScreenHeight, background)
	pal := palettes[e.palette]

	for tile := 0; tile < tilesPerPage; tile++ {
		tx, ty := tileOrigin(tile)
		for row := 0; row < 8; row++ {
			vals := e.tileRow(tile, row)
			for x, v := range vals {
				set(pixels, tx+x, ty+row, pal[v])
			}
		}
	}

	if e.grid {
		for i := 0; i <= ScreenWidth; i += 8 {
			for y := 0; y < tableWidth; y++ {
				set(pixels, min(i, ScreenWidth-1), y, gridColor)
			}
		}
		for j := 0; j <= tableWidth; j += 8 {
			for x := 0; x < ScreenWidth; x++ {
				set(pixels, x, min(j, tableWidth-1), gridColor)
			}
		}
	}

	cx, cy := tileOrigin(e.cursor)
	outline(pixels, cx-1, cy-1, 10, 10, cursorRed)

	// Zoomed view of the selected tile.
	for row := 0; row < 8; row++ {
		vals := e.tileRow(e.cursor, row)
		for x, v := range vals {
			fill(pixels, zoomX+x*zoomScale, zoomY+row*zoomScale, zoomScale, zoomScale, pal[v])
		}
	}

	for i, c := range pal {
		fill(pixels, swatchX+i*(swatchW+4), swatchY, swatchW, swatchW, c)
	}
	outline(pixels, swatchX-2, swatchY-2, len(pal)*(swatchW+4), swatchW+4, pal[3])
}

// tileOrigin returns the top-left pixel of a page tile. The two pattern
// tables sit side by side, each 16 tiles square.
func tileOrigin(tile int) (int, int) {
	table := tile / tilesPerTable
	i := tile % tilesPerTable
	return table*tableWidth + (i%16)*8, (i / 16) * 8
}

func set(pixels []byte, x, y int, c rgba) {
	if x < 0 || y < 0 || x >= ScreenWidth || y >= ScreenHeight {
		return
	}
	i := (y*ScreenWidth + x) * 4
	copy(pixels[i:i+4], c[:])
}

func fill(pixels []byte, x0, y0, w, h int, c rgba) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			set(pixels, x, y, c)
		}
	}
}

func outline(pixels []byte, x0, y0, w, h int, c rgba) {
	for x := x0; x < x0+w; x++ {
		set(pixels, x, y0, c)
		set(pixels, x, y0+h-1, c)
	}
	for y := y0; y < y0+h; y++ {
		set(pixels, x0, y, c)
		set(pixels, x0+w-1, y, c)
	}
}

// Factory creates chrcore engines.
type Factory struct{}

// NewFactory returns the engine factory.
func NewFactory() *Factory {
	return &Factory{}
}

// SystemInfo describes the machine the engine presents.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:         "eblitnes",
		ConsoleName:  "Nintendo Entertainment System",
		Extensions:   []string{".nes"},
		ScreenWidth:  ScreenWidth,
		ScreenHeight: ScreenHeight,
		FPS:          60,
		Players:      controller.MaxPorts,
		MinROMSize:   ines.MinImageSize,
		DataDirName:  "eblitnes",
		CoreName:     "chrcore",
		CoreVersion:  "1.0.0",
	}
}

// CreateEngine parses rom and builds an engine for it.
func (f *Factory) CreateEngine(ctx context.Context, rom []byte) (emucore.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cart, err := ines.Parse(rom)
	if err != nil {
		return nil, fmt.Errorf("parse cartridge: %w", err)
	}
	return New(cart), nil
}
