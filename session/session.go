// Package session resolves a ROM, constructs the emulation engine and
// wires it to a frame pump and key translator, as one explicit state
// machine run at most once.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	emucore "github.com/user-none/eblitnes/api"
	"github.com/user-none/eblitnes/input"
	"github.com/user-none/eblitnes/pump"
	"github.com/user-none/eblitnes/romloader"
)

// Chooser asks the user for a ROM. It returns ErrUserCancelled when the
// user dismisses the prompt.
type Chooser interface {
	Choose(ctx context.Context) (romloader.Source, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context) (romloader.Source, error)

// Choose calls f(ctx).
func (f ChooserFunc) Choose(ctx context.Context) (romloader.Source, error) {
	return f(ctx)
}

// Config holds the collaborators of a session.
type Config struct {
	Factory emucore.Factory

	// Source is a ROM handed over at launch. When set, Chooser is never used.
	Source  romloader.Source
	Chooser Chooser

	// Translator receives key events once the engine exists. A translator
	// with the default bindings is created when nil.
	Translator *input.Translator

	Ticks pump.TickSource
	Clock pump.Clock

	// OnTransition, if set, is called after every state change on the
	// goroutine running Start.
	OnTransition func(from, to State)
}

// Result is delivered by StartAsync.
type Result struct {
	Session *Session
	Err     error
}

// Manager runs the lifecycle of one session.
type Manager struct {
	cfg  Config
	info emucore.SystemInfo

	mu      sync.Mutex
	state   State
	started bool
}

// New creates a manager. Factory and Ticks are required, as is one of
// Source or Chooser.
func New(cfg Config) *Manager {
	if cfg.Factory == nil || cfg.Ticks == nil {
		panic("session: Factory and Ticks are required")
	}
	if cfg.Source == nil && cfg.Chooser == nil {
		panic("session: Source or Chooser is required")
	}
	if cfg.Translator == nil {
		cfg.Translator = input.NewTranslator(input.DefaultBindings(), input.AliasLastWrite)
	}
	return &Manager{cfg: cfg, info: cfg.Factory.SystemInfo()}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Translator returns the translator key events should be sent to.
func (m *Manager) Translator() *input.Translator {
	return m.cfg.Translator
}

func (m *Manager) transition(to State) {
	m.mu.Lock()
	from := m.state
	if !canTransition(from, to) {
		m.mu.Unlock()
		panic(fmt.Sprintf("session: illegal transition %s -> %s", from, to))
	}
	m.state = to
	m.mu.Unlock()

	if m.cfg.OnTransition != nil {
		m.cfg.OnTransition(from, to)
	}
}

// Start runs the lifecycle to a terminal state and blocks until done.
// On success the session is Ready and attached to the tick source.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	m.transition(ResolvingROM)
	rom, name, err := m.resolve(ctx)
	if err != nil {
		return nil, err
	}

	m.transition(ConstructingEngine)
	s, err := m.construct(ctx, rom, name)
	if err != nil {
		m.transition(Failed)
		return nil, err
	}

	s.pump = pump.New(s.engine, s.buf, m.cfg.Clock)
	s.ticks = m.cfg.Ticks
	m.transition(Ready)
	s.ticks.Attach(func() { s.pump.OnTick() })
	return s, nil
}

// StartAsync runs Start on a new goroutine. The channel receives exactly
// one Result.
func (m *Manager) StartAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		s, err := m.Start(ctx)
		ch <- Result{Session: s, Err: err}
	}()
	return ch
}

func (m *Manager) resolve(ctx context.Context) ([]byte, string, error) {
	src := m.cfg.Source
	if src == nil {
		var err error
		src, err = m.choose(ctx)
		if errors.Is(err, ErrUserCancelled) {
			m.transition(Cancelled)
			return nil, "", err
		}
		if err != nil {
			m.transition(Failed)
			return nil, "", fmt.Errorf("choose ROM: %w", err)
		}
	}

	rom, name, err := romloader.Read(src, m.info.Extensions)
	if err != nil {
		m.transition(Failed)
		return nil, "", fmt.Errorf("read ROM %s: %w", src.Name(), err)
	}
	return rom, name, nil
}

// choose runs the chooser, abandoning the wait if ctx ends first.
func (m *Manager) choose(ctx context.Context) (romloader.Source, error) {
	type choice struct {
		src romloader.Source
		err error
	}
	ch := make(chan choice, 1)
	go func() {
		src, err := m.cfg.Chooser.Choose(ctx)
		ch <- choice{src, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUserCancelled, ctx.Err())
	case c := <-ch:
		if c.err != nil {
			return nil, c.err
		}
		if c.src == nil {
			return nil, ErrUserCancelled
		}
		return c.src, nil
	}
}

func (m *Manager) construct(ctx context.Context, rom []byte, name string) (*Session, error) {
	buf := pump.NewPixelBuffer(m.info.ScreenWidth, m.info.ScreenHeight)

	// Construction finishes even if the caller gives up waiting.
	engine, err := m.cfg.Factory.CreateEngine(context.WithoutCancel(ctx), rom)
	if err != nil {
		return nil, &ConstructionError{ROM: name, Err: err}
	}

	port := engine.Controller(0)
	m.cfg.Translator.Bind(port)

	w, h := m.info.SurfaceSize()
	return &Session{
		info:       m.info,
		romName:    name,
		buf:        buf,
		engine:     engine,
		controller: port,
		translator: m.cfg.Translator,
		surfaceW:   w,
		surfaceH:   h,
	}, nil
}

// Session is a constructed, running engine with its buffer, pump and
// input binding.
type Session struct {
	info       emucore.SystemInfo
	romName    string
	buf        *pump.PixelBuffer
	engine     emucore.Engine
	controller emucore.ControllerHandle
	translator *input.Translator
	pump       *pump.Pump
	ticks      pump.TickSource
	surfaceW   int
	surfaceH   int

	closeOnce sync.Once
}

// ROMName returns the file name of the loaded ROM.
func (s *Session) ROMName() string { return s.romName }

// SystemInfo returns the metadata of the engine's system.
func (s *Session) SystemInfo() emucore.SystemInfo { return s.info }

// Engine returns the running engine.
func (s *Session) Engine() emucore.Engine { return s.engine }

// Controller returns the handle bound to the translator (port 0).
func (s *Session) Controller() emucore.ControllerHandle { return s.controller }

// Translator returns the translator bound to port 0.
func (s *Session) Translator() *input.Translator { return s.translator }

// Pump returns the frame pump.
func (s *Session) Pump() *pump.Pump { return s.pump }

// Buffer returns the pixel buffer.
func (s *Session) Buffer() *pump.PixelBuffer { return s.buf }

// Surface returns the fixed output surface size.
func (s *Session) Surface() (width, height int) { return s.surfaceW, s.surfaceH }

// HandleKey forwards a key event to the translator.
func (s *Session) HandleKey(ev input.KeyEvent) bool {
	return s.translator.Handle(ev)
}

// Close detaches the pump from its tick source and releases the engine.
// It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.ticks.Detach()
		s.engine.Close()
	})
}
