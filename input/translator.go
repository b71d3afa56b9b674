// Package input turns raw physical key transitions into logical
// controller button changes.
package input

import (
	"fmt"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/controller"
)

// Key names a physical key, e.g. "S", "Shift" or "ArrowUp".
type Key string

// KeyEvent is one physical key transition as reported by the host.
// RepeatCount is 1 for the initial transition and grows while the OS
// auto-repeats a held key.
type KeyEvent struct {
	Key         Key
	Released    bool
	RepeatCount int
}

// AliasPolicy decides how releases are resolved when more than one
// physical key maps to the same logical button.
type AliasPolicy int

const (
	// AliasLastWrite applies every transition directly, so releasing one
	// aliased key clears the button even while another aliased key is
	// still held.
	AliasLastWrite AliasPolicy = iota

	// AliasRefCount keeps the button held while any aliased key is down.
	AliasRefCount
)

// String returns the config name of the policy.
func (p AliasPolicy) String() string {
	switch p {
	case AliasLastWrite:
		return "last-write"
	case AliasRefCount:
		return "refcount"
	default:
		return "unknown"
	}
}

// ParseAliasPolicy converts a config name to an AliasPolicy. An empty
// name selects AliasLastWrite.
func ParseAliasPolicy(name string) (AliasPolicy, error) {
	switch name {
	case "", "last-write":
		return AliasLastWrite, nil
	case "refcount":
		return AliasRefCount, nil
	default:
		return 0, fmt.Errorf("unknown alias policy %q: use last-write or refcount", name)
	}
}

// Translator applies debounced key transitions to a controller handle.
// It is not safe for concurrent use; hosts deliver events from the same
// goroutine that drives frame ticks.
type Translator struct {
	bindings Bindings
	policy   AliasPolicy
	target   emucore.ControllerHandle

	// held and counts are only used by AliasRefCount.
	held   map[Key]bool
	counts map[controller.Button]int
}

// NewTranslator creates a translator with the given key bindings.
// Events are dropped until a target is bound.
func NewTranslator(bindings Bindings, policy AliasPolicy) *Translator {
	return &Translator{
		bindings: bindings,
		policy:   policy,
		held:     make(map[Key]bool),
		counts:   make(map[controller.Button]int),
	}
}

// Bind directs subsequent button changes to target and clears any
// reference counts collected for a previous target.
func (t *Translator) Bind(target emucore.ControllerHandle) {
	t.target = target
	clear(t.held)
	clear(t.counts)
}

// Bound reports whether a target has been bound.
func (t *Translator) Bound() bool {
	return t.target != nil
}

// Handle applies ev if it is the first transition of a press or release
// (RepeatCount == 1) for a mapped key. It reports whether the event
// produced a button update.
func (t *Translator) Handle(ev KeyEvent) bool {
	if ev.RepeatCount != 1 || t.target == nil {
		return false
	}
	button, ok := t.bindings[ev.Key]
	if !ok {
		return false
	}

	pressed := !ev.Released
	if t.policy == AliasRefCount {
		pressed = t.refCount(ev.Key, button, pressed)
	}

	apply(t.target, button, pressed)
	return true
}

// refCount tracks which physical keys hold button and returns the
// resolved state.
func (t *Translator) refCount(key Key, button controller.Button, pressed bool) bool {
	if pressed {
		if !t.held[key] {
			t.held[key] = true
			t.counts[button]++
		}
	} else if t.held[key] {
		delete(t.held, key)
		t.counts[button]--
	}
	return t.counts[button] > 0
}

func apply(h emucore.ControllerHandle, b controller.Button, pressed bool) {
	switch b {
	case controller.ButtonA:
		h.A(pressed)
	case controller.ButtonB:
		h.B(pressed)
	case controller.ButtonSelect:
		h.Select(pressed)
	case controller.ButtonStart:
		h.Start(pressed)
	case controller.ButtonUp:
		h.Up(pressed)
	case controller.ButtonDown:
		h.Down(pressed)
	case controller.ButtonLeft:
		h.Left(pressed)
	case controller.ButtonRight:
		h.Right(pressed)
	default:
		panic(fmt.Sprintf("input: invalid button %d", b))
	}
}
