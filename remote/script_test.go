package remote

import (
	"strings"
	"testing"

	"github.com/user-none/eblitnes/controller"
)

func TestParseScript(t *testing.T) {
	script := `# title screen
60 NONE
10 start

5 A+Right
`
	steps, err := ParseScript(strings.NewReader(script))
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}
	if steps[0].Frames != 60 || steps[0].Buttons != 0 {
		t.Errorf("step 1 = %+v", steps[0])
	}
	if !steps[1].Buttons.Pressed(controller.ButtonStart) {
		t.Errorf("step 2 buttons = %s, want Start", steps[1].Buttons)
	}
	if got := steps[2].Buttons.String(); got != "A+Right" {
		t.Errorf("step 3 buttons = %s, want A+Right", got)
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"missing buttons", "10\n", "line 1"},
		{"bad frames", "x NONE\n", "invalid frame count"},
		{"negative frames", "-1 NONE\n", "invalid frame count"},
		{"unknown button", "# c\n5 A+Turbo\n", "line 2: unknown button \"Turbo\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(tt.script))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseScript error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
