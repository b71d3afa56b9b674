package standalone

import (
	"fmt"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/user-none/eblitnes/input"
)

// keyNameMap maps key name strings, as used in bindings, to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Tab":        ebiten.KeyTab,
	"Escape":     ebiten.KeyEscape,
	"Shift":      ebiten.KeyShiftLeft,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// keyAliases are physical keys reported under another key's name.
var keyAliases = map[ebiten.Key]string{
	ebiten.KeyShiftRight:  "Shift",
	ebiten.KeyNumpadEnter: "Enter",
}

// reservedKeys are host hotkeys. They never reach the translator.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape: true, // Quit
	ebiten.KeyF11:    true, // Fullscreen
	ebiten.KeyF12:    true, // Screenshot
}

// Auto-repeat timing in ticks, approximating a typical OS keyboard.
const (
	repeatDelay    = 30
	repeatInterval = 3
)

var keyToName map[ebiten.Key]string

func init() {
	keyToName = make(map[ebiten.Key]string, len(keyNameMap)+len(keyAliases))
	for name, key := range keyNameMap {
		keyToName[key] = name
	}
	for key, name := range keyAliases {
		keyToName[key] = name
	}
}

// ParseKey converts a key name string to an ebiten.Key.
// Returns the key and true if the name is valid, or 0 and false otherwise.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// KeyToName converts an ebiten.Key to its binding name.
func KeyToName(k ebiten.Key) (string, bool) {
	name, ok := keyToName[k]
	return name, ok
}

// IsReservedKey returns true if the key is a host hotkey.
func IsReservedKey(k ebiten.Key) bool {
	return reservedKeys[k]
}

// CheckKeyName reports whether name can be bound: it must be a key the
// keyboard poller produces and not a hotkey. It satisfies storage.KeyCheck.
func CheckKeyName(name string) error {
	k, ok := ParseKey(name)
	if !ok {
		return fmt.Errorf("unknown key %q", name)
	}
	if IsReservedKey(k) {
		return fmt.Errorf("key %q is reserved", name)
	}
	return nil
}

// ValidateBindings checks every bound key with CheckKeyName.
func ValidateBindings(b input.Bindings) error {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, string(k))
	}
	sort.Strings(names)

	for _, name := range names {
		if err := CheckKeyName(name); err != nil {
			return err
		}
	}
	return nil
}

// repeatCount maps how long a key has been held, in ticks, to the
// repeat count of the event reported this tick. 0 means no event.
func repeatCount(duration int) int {
	switch {
	case duration == 1:
		return 1
	case duration < repeatDelay:
		return 0
	case (duration-repeatDelay)%repeatInterval == 0:
		return 2 + (duration-repeatDelay)/repeatInterval
	}
	return 0
}

// KeyboardPoller turns ebiten's per-tick keyboard state into key events.
type KeyboardPoller struct {
	released []ebiten.Key
	pressed  []ebiten.Key
}

// Poll reports this tick's releases, then new presses and auto-repeats,
// to emit. Must be called from ebiten's Update.
func (p *KeyboardPoller) Poll(emit func(input.KeyEvent)) {
	p.released = inpututil.AppendJustReleasedKeys(p.released[:0])
	p.pressed = inpututil.AppendPressedKeys(p.pressed[:0])
	keyEvents(p.released, p.pressed, inpututil.KeyPressDuration, emit)
}

// keyEvents converts one tick's key lists into events: every release
// first, then presses whose hold duration yields a repeat count. Aliased
// physical keys are reported under their shared name; hotkeys and
// unnamed keys are skipped.
func keyEvents(released, pressed []ebiten.Key, duration func(ebiten.Key) int, emit func(input.KeyEvent)) {
	for _, k := range released {
		if name, ok := gameKeyName(k); ok {
			emit(input.KeyEvent{Key: input.Key(name), Released: true, RepeatCount: 1})
		}
	}

	for _, k := range pressed {
		name, ok := gameKeyName(k)
		if !ok {
			continue
		}
		if n := repeatCount(duration(k)); n > 0 {
			emit(input.KeyEvent{Key: input.Key(name), RepeatCount: n})
		}
	}
}

func gameKeyName(k ebiten.Key) (string, bool) {
	if reservedKeys[k] {
		return "", false
	}
	return KeyToName(k)
}
