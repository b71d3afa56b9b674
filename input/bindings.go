package input

import (
	"fmt"
	"sort"

	"github.com/user-none/eblitnes/controller"
)

// Bindings maps physical keys to logical buttons. Several keys may map
// to the same button.
type Bindings map[Key]controller.Button

// DefaultBindings returns the stock keyboard layout: S and O both act
// as A, A acts as B, Shift is Select, Enter is Start and the arrow keys
// drive the d-pad.
func DefaultBindings() Bindings {
	return Bindings{
		"S":          controller.ButtonA,
		"O":          controller.ButtonA,
		"A":          controller.ButtonB,
		"Shift":      controller.ButtonSelect,
		"Enter":      controller.ButtonStart,
		"ArrowUp":    controller.ButtonUp,
		"ArrowDown":  controller.ButtonDown,
		"ArrowLeft":  controller.ButtonLeft,
		"ArrowRight": controller.ButtonRight,
	}
}

// WithOverrides returns a copy of b with overrides applied. Keys of
// overrides are key names, values are button names; an empty button
// name removes the key's binding.
func (b Bindings) WithOverrides(overrides map[string]string) (Bindings, error) {
	out := make(Bindings, len(b)+len(overrides))
	for k, v := range b {
		out[k] = v
	}

	// Sorted so the first bad entry reported is stable.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := overrides[k]
		if name == "" {
			delete(out, Key(k))
			continue
		}
		btn, ok := controller.ParseButton(name)
		if !ok {
			return nil, fmt.Errorf("binding for key %q: unknown button %q", k, name)
		}
		out[Key(k)] = btn
	}
	return out, nil
}

// KeysFor returns the keys bound to button, sorted by name.
func (b Bindings) KeysFor(button controller.Button) []Key {
	var keys []Key
	for k, v := range b {
		if v == button {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Aliased returns the buttons bound to more than one key.
func (b Bindings) Aliased() []controller.Button {
	var out []controller.Button
	for _, btn := range controller.Buttons() {
		if len(b.KeysFor(btn)) > 1 {
			out = append(out, btn)
		}
	}
	return out
}
