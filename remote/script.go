package remote

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/user-none/eblitnes/controller"
)

// Step holds a set of buttons for a number of frames.
type Step struct {
	Frames  int
	Buttons controller.State
}

// ParseScript reads an input script. Each non-blank line not starting
// with '#' has the form "<frames> <BUTTON>[+<BUTTON>...]" or
// "<frames> NONE".
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		parts := strings.Fields(text)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<frames> <buttons>\", got %q", line, text)
		}

		frames, err := strconv.Atoi(parts[0])
		if err != nil || frames < 0 {
			return nil, fmt.Errorf("line %d: invalid frame count %q", line, parts[0])
		}

		buttons, err := parseButtons(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		steps = append(steps, Step{Frames: frames, Buttons: buttons})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseButtons(s string) (controller.State, error) {
	if strings.EqualFold(s, "NONE") {
		return 0, nil
	}
	var state controller.State
	for _, name := range strings.Split(s, "+") {
		b, ok := controller.ParseButton(name)
		if !ok {
			return 0, fmt.Errorf("unknown button %q", name)
		}
		state |= 1 << b
	}
	return state, nil
}
