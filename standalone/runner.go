// Package standalone hosts a session in an ebiten window: ebiten's
// Update drives frame ticks and key polling, Draw presents the frame.
package standalone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/controller"
	"github.com/user-none/eblitnes/input"
	"github.com/user-none/eblitnes/pump"
	"github.com/user-none/eblitnes/remote"
	"github.com/user-none/eblitnes/romloader"
	"github.com/user-none/eblitnes/session"
	"github.com/user-none/eblitnes/standalone/storage"
)

// Options configures Run.
type Options struct {
	Factory emucore.Factory
	Config  *storage.Config

	// ROMPath is the file handed over at launch. Empty opens the chooser.
	ROMPath string

	// RecordPath, if set, receives port 0's input as a replay script.
	RecordPath string
}

// Runner implements ebiten.Game around one session.
type Runner struct {
	info       emucore.SystemInfo
	translator *input.Translator
	ticks      pump.ManualTicks
	renderer   *FramebufferRenderer
	static     *staticScreen
	keyboard   KeyboardPoller
	remote     *remote.Server
	recorder   *remote.Recorder

	// start begins a new session attempt.
	start    func() <-chan session.Result
	results  <-chan session.Result
	session  *session.Session
	reprompt bool
	err      error
}

// retryHint is shown after the chooser was dismissed.
const retryHint = "No ROM selected. Press Enter to choose one, Escape to quit."

// Run opens the window and blocks until it closes. Dismissing the
// chooser does not end the run; Enter opens it again.
func Run(opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = storage.DefaultConfig()
	}
	info := opts.Factory.SystemInfo()

	bindings, err := cfg.Bindings()
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	if err := ValidateBindings(bindings); err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	r := &Runner{
		info:       info,
		translator: input.NewTranslator(bindings, policy),
		renderer:   NewFramebufferRenderer(cfg.Video.ShowFPS),
		static:     newStaticScreen(info.ScreenWidth, info.ScreenHeight),
	}

	if cfg.Remote.Enabled {
		r.remote = remote.NewServer(remote.DefaultQueueSize)
		if err := r.remote.Start(cfg.Remote.Address); err != nil {
			return err
		}
		defer r.remote.Stop()
		log.Printf("Remote input listening on %s", cfg.Remote.Address)
	}

	if opts.RecordPath != "" {
		f, err := os.Create(opts.RecordPath)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		defer closeRecording(f, r)
		r.recorder = remote.NewRecorder(f)
	}

	var src romloader.Source
	if opts.ROMPath != "" {
		src = romloader.FileSource(opts.ROMPath)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	chooser := NewDialogChooser(info)
	r.start = func() <-chan session.Result {
		mgr := session.New(session.Config{
			Factory:    opts.Factory,
			Source:     src,
			Chooser:    chooser,
			Translator: r.translator,
			Ticks:      &r.ticks,
			OnTransition: func(from, to session.State) {
				log.Printf("Session: %s -> %s", from, to)
			},
		})
		return mgr.StartAsync(ctx)
	}
	r.results = r.start()

	w, h := info.SurfaceSize()
	ebiten.SetWindowTitle(info.Name)
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(info.FPS)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)

	err = ebiten.RunGame(r)
	cancel()
	r.Close()

	if err != nil {
		return err
	}
	return r.err
}

func closeRecording(f *os.File, r *Runner) {
	if err := r.recorder.Close(); err != nil {
		log.Printf("Warning: failed to write recording: %v", err)
	}
	f.Close()
}

// Update implements ebiten.Game. One call is one frame tick.
func (r *Runner) Update() error {
	if r.session == nil && r.results != nil {
		select {
		case res := <-r.results:
			if err := r.handleResult(res); err != nil {
				return err
			}
		default:
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if r.reprompt && inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		r.retry()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) && r.session != nil {
		if path, err := TakeScreenshot(r.session.Buffer()); err != nil {
			log.Printf("Warning: screenshot failed: %v", err)
		} else {
			log.Printf("Saved screenshot %s", path)
		}
	}

	// Events before the session is ready are dropped by the unbound translator.
	r.keyboard.Poll(r.handleKey)
	if r.remote != nil {
		r.remote.Drain(r.handleKey)
	}

	if r.session == nil {
		r.static.Update()
		return nil
	}

	r.ticks.Tick(1)
	if r.recorder != nil {
		r.recorder.Observe(portState(r.session.Controller()))
	}
	return nil
}

// handleResult applies the outcome of a session attempt. A dismissed
// chooser leaves the runner waiting to re-prompt; any other failure ends
// the run with ebiten.Termination.
func (r *Runner) handleResult(res session.Result) error {
	r.results = nil
	switch {
	case res.Err == nil:
		r.session = res.Session
		log.Printf("Running %s", r.session.ROMName())
		return nil
	case IsCancelled(res.Err):
		r.reprompt = true
		log.Print(retryHint)
		return nil
	default:
		r.err = res.Err
		return ebiten.Termination
	}
}

// retry starts a new session attempt after a dismissed chooser.
func (r *Runner) retry() {
	r.reprompt = false
	r.results = r.start()
}

func (r *Runner) handleKey(ev input.KeyEvent) {
	r.translator.Handle(ev)
}

// portState reads a controller's buttons when the handle exposes them.
func portState(h emucore.ControllerHandle) controller.State {
	if p, ok := h.(interface{ Snapshot() controller.State }); ok {
		return p.Snapshot()
	}
	return 0
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	if r.session == nil {
		r.static.Draw(screen, r.renderer)
		if r.reprompt {
			drawHint(screen, retryHint)
		}
		return
	}
	r.renderer.SetTarget(screen)
	r.session.Pump().OnDraw(r.renderer)
}

// Layout implements ebiten.Game. The logical screen is fixed at the
// scaled surface size; ebiten fits it to the window.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.info.SurfaceSize()
}

// Close releases the session, if one was started.
func (r *Runner) Close() {
	if r.session != nil {
		r.session.Close()
		return
	}
	// A session still being constructed is closed once it arrives.
	if r.results != nil {
		go func(results <-chan session.Result) {
			if res := <-results; res.Session != nil {
				res.Session.Close()
			}
		}(r.results)
	}
}

// IsCancelled reports whether err means the user dismissed the chooser.
func IsCancelled(err error) bool {
	return errors.Is(err, session.ErrUserCancelled)
}
