package controller

import (
	"sync"
	"testing"

	emucore "github.com/user-none/eblitnes/api"
)

var _ emucore.ControllerHandle = (*Port)(nil)

func TestNewBankAllReleased(t *testing.T) {
	b := NewBank()
	for i, s := range b.Snapshot() {
		if s != 0 {
			t.Fatalf("port %d: expected all released, got %s", i, s)
		}
		for _, btn := range Buttons() {
			if s.Pressed(btn) {
				t.Errorf("port %d: %s pressed at creation", i, btn)
			}
		}
	}
}

func TestPortSetIsIdempotent(t *testing.T) {
	p := NewBank().Port(0)

	p.Set(ButtonStart, true)
	p.Set(ButtonStart, true)
	if s := p.Snapshot(); s != State(1<<ButtonStart) {
		t.Fatalf("expected only Start held, got %s", s)
	}

	p.Set(ButtonStart, false)
	p.Set(ButtonStart, false)
	if s := p.Snapshot(); s != 0 {
		t.Fatalf("expected all released, got %s", s)
	}
}

func TestPortSettersMapToButtons(t *testing.T) {
	tests := []struct {
		set  func(p *Port, pressed bool)
		want Button
	}{
		{(*Port).Up, ButtonUp},
		{(*Port).Down, ButtonDown},
		{(*Port).Left, ButtonLeft},
		{(*Port).Right, ButtonRight},
		{(*Port).A, ButtonA},
		{(*Port).B, ButtonB},
		{(*Port).Select, ButtonSelect},
		{(*Port).Start, ButtonStart},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			p := &Port{}
			tt.set(p, true)
			s := p.Snapshot()
			for _, b := range Buttons() {
				if s.Pressed(b) != (b == tt.want) {
					t.Errorf("%s pressed = %v after setting %s", b, s.Pressed(b), tt.want)
				}
			}
			tt.set(p, false)
			if p.Snapshot() != 0 {
				t.Errorf("expected release of %s", tt.want)
			}
		})
	}
}

func TestPortsAreIndependent(t *testing.T) {
	b := NewBank()
	b.Port(1).A(true)

	s := b.Snapshot()
	if s[0] != 0 {
		t.Errorf("port 0 changed: %s", s[0])
	}
	if !s[1].Pressed(ButtonA) {
		t.Errorf("port 1 A not held")
	}
}

func TestInvalidButtonPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid button")
		}
	}()
	(&Port{}).Set(Button(8), true)
}

func TestInvalidPortPanics(t *testing.T) {
	for _, idx := range []int{-1, MaxPorts} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for port %d", idx)
				}
			}()
			NewBank().Port(idx)
		}()
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{0, "NONE"},
		{State(1 << ButtonA), "A"},
		{State(1<<ButtonA | 1<<ButtonRight), "A+Right"},
		{State(0xFF), "A+B+Select+Start+Up+Down+Left+Right"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%#x).String() = %q, want %q", uint8(tt.state), got, tt.want)
		}
	}
}

func TestParseButton(t *testing.T) {
	for _, b := range Buttons() {
		got, ok := ParseButton(b.String())
		if !ok || got != b {
			t.Errorf("ParseButton(%q) = %v, %v", b.String(), got, ok)
		}
	}
	if b, ok := ParseButton("select"); !ok || b != ButtonSelect {
		t.Errorf("ParseButton is not case-insensitive")
	}
	if _, ok := ParseButton("Turbo"); ok {
		t.Error("ParseButton(\"Turbo\") returned true")
	}
}

func TestConcurrentSetAndSnapshot(t *testing.T) {
	p := NewBank().Port(0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p.Set(ButtonA, i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if s := p.Snapshot(); s&^State(1<<ButtonA) != 0 {
				t.Errorf("unexpected bits set: %s", s)
				return
			}
		}
	}()
	wg.Wait()

	if p.Snapshot().Pressed(ButtonA) {
		t.Error("last write (release) did not win")
	}
}
