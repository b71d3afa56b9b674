package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/chrcore"
	"github.com/user-none/eblitnes/pump"
	"github.com/user-none/eblitnes/romloader"
	"github.com/user-none/eblitnes/session"
)

// slowFactory delays engine construction.
type slowFactory struct {
	*chrcore.Factory
	delay time.Duration
}

func (f slowFactory) CreateEngine(ctx context.Context, rom []byte) (emucore.Engine, error) {
	time.Sleep(f.delay)
	return f.Factory.CreateEngine(ctx, rom)
}

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kong.Name("eblitnes"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	return parser
}

func writeROM(t *testing.T) string {
	t.Helper()
	data := make([]byte, 16+16384+8192)
	copy(data, "NES\x1a")
	data[4] = 1
	data[5] = 1
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommands(t *testing.T) {
	rom := writeROM(t)

	tests := []struct {
		name    string
		args    []string
		command string
	}{
		{"run with rom", []string{"run", rom}, "run <rom>"},
		{"run without rom", []string{"run"}, "run"},
		{"info", []string{"info", rom}, "info <rom>"},
		{"bench", []string{"bench", rom, "--frames", "30"}, "bench <rom>"},
		{"replay", []string{"replay", rom}, "replay <script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &CLI{}
			ctx, err := newParser(t, cli).Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%v): %v", tt.args, err)
			}
			if ctx.Command() != tt.command {
				t.Errorf("command = %q, want %q", ctx.Command(), tt.command)
			}
		})
	}
}

func TestRunFlags(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli).Parse([]string{"run", "--remote", "--alias-policy", "refcount", "--no-fps"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cli.Run.Remote {
		t.Error("Remote not set")
	}
	if cli.Run.AliasPolicy != "refcount" {
		t.Errorf("AliasPolicy = %q, want refcount", cli.Run.AliasPolicy)
	}
	if !cli.Run.NoFPS {
		t.Error("NoFPS not set")
	}
}

func TestBenchRejectsZeroFrames(t *testing.T) {
	cmd := &BenchCmd{ROM: writeROM(t), Frames: 0, TPS: 60}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for zero frames")
	}
}

func TestInfo(t *testing.T) {
	cmd := &InfoCmd{ROM: writeROM(t)}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestBench(t *testing.T) {
	cmd := &BenchCmd{ROM: writeROM(t), Frames: 5, TPS: 240}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRejectsUnknownAliasPolicy(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cmd := &RunCmd{AliasPolicy: "newest"}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for unknown alias policy")
	}
}

func TestRunBenchExcludesConstruction(t *testing.T) {
	const delay = 300 * time.Millisecond
	rom, err := os.ReadFile(writeROM(t))
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.New(session.Config{
		Factory: slowFactory{Factory: chrcore.NewFactory(), delay: delay},
		Source:  romloader.BytesSource("test.nes", rom),
		Ticks:   pump.NewIntervalTicks(1000),
	})

	r, err := runBench(context.Background(), mgr, 5)
	if err != nil {
		t.Fatalf("runBench: %v", err)
	}
	if r.frames < 5 {
		t.Errorf("frames = %d, want at least 5", r.frames)
	}
	if r.elapsed >= delay {
		t.Errorf("elapsed = %s includes engine construction (%s)", r.elapsed, delay)
	}
}
