package session

import "fmt"

// State is a step of the session lifecycle.
type State int

const (
	Uninitialized State = iota
	ResolvingROM
	ConstructingEngine
	Ready
	Cancelled
	Failed
)

var stateNames = map[State]string{
	Uninitialized:      "Uninitialized",
	ResolvingROM:       "ResolvingROM",
	ConstructingEngine: "ConstructingEngine",
	Ready:              "Ready",
	Cancelled:          "Cancelled",
	Failed:             "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions can leave s.
func (s State) Terminal() bool {
	return s == Ready || s == Cancelled || s == Failed
}

var transitions = map[State][]State{
	Uninitialized:      {ResolvingROM},
	ResolvingROM:       {ConstructingEngine, Cancelled, Failed},
	ConstructingEngine: {Ready, Failed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
