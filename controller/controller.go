// Package controller holds the debounced button state of the standard
// controllers plugged into the emulated machine.
package controller

import (
	"fmt"
	"strings"
	"sync"
)

// MaxPorts is the number of controller ports on the machine.
const MaxPorts = 2

// Button identifies one of the eight logical buttons. Values follow the
// order the hardware shift register reports them.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight

	numButtons
)

var buttonNames = [numButtons]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// String returns the display name of the button.
func (b Button) String() string {
	if b >= numButtons {
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
	return buttonNames[b]
}

// ParseButton converts a button name to a Button. Matching is case-insensitive.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), true
		}
	}
	return 0, false
}

// Buttons returns all logical buttons in shift-register order.
func Buttons() []Button {
	out := make([]Button, numButtons)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}

func mustValid(b Button) {
	if b >= numButtons {
		panic(fmt.Sprintf("controller: invalid button %d", uint8(b)))
	}
}

// State is a snapshot of the eight button flags as a bitmask, bit n set
// when Button(n) is held.
type State uint8

// Pressed reports whether the button is held in this snapshot.
func (s State) Pressed(b Button) bool {
	mustValid(b)
	return s&(1<<b) != 0
}

// String lists the held buttons joined by "+", or "NONE".
func (s State) String() string {
	var names []string
	for _, b := range Buttons() {
		if s.Pressed(b) {
			names = append(names, b.String())
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "+")
}

// Port is one controller's state. Writes come from a single input
// translator and reads from the engine; the mutex keeps the contract
// intact when the two run on different goroutines.
type Port struct {
	mu    sync.Mutex
	state State
}

// Set records whether button is held. Repeated calls with the same value
// have no further effect.
func (p *Port) Set(b Button, pressed bool) {
	mustValid(b)
	p.mu.Lock()
	if pressed {
		p.state |= 1 << b
	} else {
		p.state &^= 1 << b
	}
	p.mu.Unlock()
}

// Snapshot returns the current button flags.
func (p *Port) Snapshot() State {
	p.mu.Lock()
	s := p.state
	p.mu.Unlock()
	return s
}

// Up sets the Up button.
func (p *Port) Up(pressed bool) { p.Set(ButtonUp, pressed) }

// Down sets the Down button.
func (p *Port) Down(pressed bool) { p.Set(ButtonDown, pressed) }

// Left sets the Left button.
func (p *Port) Left(pressed bool) { p.Set(ButtonLeft, pressed) }

// Right sets the Right button.
func (p *Port) Right(pressed bool) { p.Set(ButtonRight, pressed) }

// A sets the A button.
func (p *Port) A(pressed bool) { p.Set(ButtonA, pressed) }

// B sets the B button.
func (p *Port) B(pressed bool) { p.Set(ButtonB, pressed) }

// Select sets the Select button.
func (p *Port) Select(pressed bool) { p.Set(ButtonSelect, pressed) }

// Start sets the Start button.
func (p *Port) Start(pressed bool) { p.Set(ButtonStart, pressed) }

// Bank holds the state for every controller port.
type Bank struct {
	ports [MaxPorts]Port
}

// NewBank creates a bank with every button released.
func NewBank() *Bank {
	return &Bank{}
}

// Port returns the controller at index. Only 0 and 1 are valid.
func (b *Bank) Port(index int) *Port {
	if index < 0 || index >= MaxPorts {
		panic(fmt.Sprintf("controller: invalid port %d", index))
	}
	return &b.ports[index]
}

// Snapshot returns the state of every port.
func (b *Bank) Snapshot() [MaxPorts]State {
	var out [MaxPorts]State
	for i := range b.ports {
		out[i] = b.ports[i].Snapshot()
	}
	return out
}
