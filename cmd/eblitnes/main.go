// Package main provides the eblitnes CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/user-none/eblitnes/chrcore"
	"github.com/user-none/eblitnes/ines"
	"github.com/user-none/eblitnes/input"
	"github.com/user-none/eblitnes/pump"
	"github.com/user-none/eblitnes/remote"
	"github.com/user-none/eblitnes/romloader"
	"github.com/user-none/eblitnes/session"
	"github.com/user-none/eblitnes/standalone"
	"github.com/user-none/eblitnes/standalone/storage"
)

// ErrInvalidRate indicates a tick rate or frame count out of range.
var ErrInvalidRate = errors.New("value must be positive")

// CLI represents the command-line interface structure.
type CLI struct {
	Run    RunCmd    `cmd:"" default:"withargs" help:"Open a window and run a ROM."`
	Info   InfoCmd   `cmd:"" help:"Display cartridge header information."`
	Bench  BenchCmd  `cmd:"" help:"Run a ROM headless and report the achieved frame rate."`
	Replay ReplayCmd `cmd:"" help:"Stream a recorded input script to a running instance."`
}

// RunCmd runs a ROM in a window.
type RunCmd struct {
	ROM         string `arg:"" optional:"" type:"existingfile" help:"Path to ROM file or archive. Omit to choose one."`
	Remote      bool   `help:"Accept remote input over gRPC."`
	Address     string `help:"Remote input listen address (overrides config)."`
	AliasPolicy string `help:"How aliased keys resolve: last-write or refcount (overrides config)."`
	NoFPS       bool   `help:"Hide the frame rate overlay."`
	Fullscreen  bool   `help:"Start fullscreen."`
	Record      string `help:"Record port 0 input to this script file." type:"path"`
}

// Run executes the run command.
func (c *RunCmd) Run() error {
	factory := chrcore.NewFactory()
	storage.Init(factory.SystemInfo().DataDirName)
	if err := storage.EnsureDirectories(); err != nil {
		log.Printf("Warning: %v", err)
	}

	config, err := storage.LoadConfig()
	if err != nil {
		log.Printf("Warning: %v, using defaults", err)
		config = storage.DefaultConfig()
	}
	if problems := storage.ValidateConfig(config, standalone.CheckKeyName); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("Warning: config %s", p)
		}
		config = storage.CorrectConfig(config, standalone.CheckKeyName)
	}

	if c.Remote {
		config.Remote.Enabled = true
	}
	if c.Address != "" {
		config.Remote.Address = c.Address
	}
	if c.AliasPolicy != "" {
		if _, err := input.ParseAliasPolicy(c.AliasPolicy); err != nil {
			return err
		}
		config.Input.AliasPolicy = c.AliasPolicy
	}
	if c.NoFPS {
		config.Video.ShowFPS = false
	}
	if c.Fullscreen {
		config.Window.Fullscreen = true
	}

	return standalone.Run(standalone.Options{
		Factory:    factory,
		Config:     config,
		ROMPath:    c.ROM,
		RecordPath: c.Record,
	})
}

// InfoCmd displays iNES header information.
type InfoCmd struct {
	ROM string `arg:"" type:"existingfile" help:"Path to ROM file or archive."`
}

// Run executes the info command.
func (c *InfoCmd) Run() error {
	info := chrcore.NewFactory().SystemInfo()
	data, name, err := romloader.Load(c.ROM, info.Extensions)
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}

	cart, err := ines.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to load cartridge: %w", err)
	}

	h := cart.Header
	fmt.Printf("ROM Information:\n")
	fmt.Printf("  File:       %s (%d bytes)\n", name, len(data))
	fmt.Printf("  Mapper:     %d\n", h.Mapper)
	fmt.Printf("  PRG ROM:    %d KiB (%d banks)\n", h.PRGBanks*ines.PRGBankSize/1024, h.PRGBanks)
	if h.UsesCHRRAM() {
		fmt.Printf("  CHR:        RAM\n")
	} else {
		fmt.Printf("  CHR ROM:    %d KiB (%d banks)\n", h.CHRBanks*ines.CHRBankSize/1024, h.CHRBanks)
	}
	fmt.Printf("  PRG RAM:    %d KiB\n", h.PRGRAMSize/1024)
	fmt.Printf("  Mirroring:  %s\n", h.Mirroring)
	fmt.Printf("  Battery:    %v\n", h.Battery)
	fmt.Printf("  Trainer:    %v\n", h.Trainer)

	return nil
}

// BenchCmd runs a ROM without a window.
type BenchCmd struct {
	ROM    string `arg:"" type:"existingfile" help:"Path to ROM file or archive."`
	Frames int    `help:"Number of frames to run." default:"600"`
	TPS    int    `name:"tps" help:"Ticks per second." default:"60"`
}

// Run executes the bench command.
func (c *BenchCmd) Run() error {
	if c.Frames <= 0 || c.TPS <= 0 {
		return fmt.Errorf("%w: frames=%d tps=%d", ErrInvalidRate, c.Frames, c.TPS)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mgr := session.New(session.Config{
		Factory: chrcore.NewFactory(),
		Source:  romloader.FileSource(c.ROM),
		Ticks:   pump.NewIntervalTicks(c.TPS),
	})

	r, err := runBench(ctx, mgr, uint64(c.Frames))
	if err != nil {
		return err
	}

	fmt.Printf("Frames:      %d\n", r.frames)
	fmt.Printf("Elapsed:     %s\n", r.elapsed.Round(time.Millisecond))
	fmt.Printf("Average FPS: %.2f\n", float64(r.frames)/r.elapsed.Seconds())
	fmt.Printf("Last FPS:    %d\n", r.fps)
	return nil
}

type benchResult struct {
	frames  uint64
	fps     int
	elapsed time.Duration
}

// runBench starts mgr and runs until n frames have been advanced. The
// clock starts once the session is Ready.
func runBench(ctx context.Context, mgr *session.Manager, n uint64) (benchResult, error) {
	s, err := mgr.Start(ctx)
	if err != nil {
		return benchResult{}, err
	}
	defer s.Close()

	start := time.Now()
	r, err := waitFrames(ctx, s.Pump(), n)
	if err != nil {
		return benchResult{}, err
	}
	r.elapsed = time.Since(start)
	return r, nil
}

// waitFrames polls p until it has advanced n frames.
func waitFrames(ctx context.Context, p *pump.Pump, n uint64) (benchResult, error) {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		if f := p.Frames(); f >= n {
			return benchResult{frames: f, fps: p.FPS()}, nil
		}
		select {
		case <-ctx.Done():
			return benchResult{}, ctx.Err()
		case <-t.C:
		}
	}
}

// ReplayCmd sends a recorded script to a running instance.
type ReplayCmd struct {
	Script string        `arg:"" type:"existingfile" help:"Path to the input script."`
	Addr   string        `help:"Address of the remote input server." default:"localhost:50051"`
	Delay  time.Duration `help:"Wait before starting playback." default:"2s"`
}

// Run executes the replay command.
func (c *ReplayCmd) Run() error {
	f, err := os.Open(c.Script)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	steps, err := remote.ParseScript(f)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	client, err := remote.Dial(c.Addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("Replaying %d steps to %s in %s...", len(steps), c.Addr, c.Delay)
	select {
	case <-time.After(c.Delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	frame := time.Second / time.Duration(chrcore.NewFactory().SystemInfo().FPS)
	if err := client.Replay(ctx, steps, input.DefaultBindings(), frame); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	log.Println("Replay complete.")
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("eblitnes"),
		kong.Description("Runs NES cartridge images through a frame-paced engine host."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
