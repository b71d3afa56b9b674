package pump

import (
	"sync"
	"time"
)

// TickSource invokes an attached callback once per scheduler tick.
// Callbacks are never invoked concurrently.
type TickSource interface {
	Attach(fn func())
	Detach()
}

// ManualTicks is a TickSource driven by explicit calls to Tick.
type ManualTicks struct {
	mu sync.Mutex
	fn func()
}

// Attach implements TickSource.
func (m *ManualTicks) Attach(fn func()) {
	m.mu.Lock()
	m.fn = fn
	m.mu.Unlock()
}

// Detach implements TickSource.
func (m *ManualTicks) Detach() {
	m.mu.Lock()
	m.fn = nil
	m.mu.Unlock()
}

// Attached reports whether a callback is attached.
func (m *ManualTicks) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

// Tick fires the attached callback n times. It reports false if nothing
// is attached.
func (m *ManualTicks) Tick(n int) bool {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	for i := 0; i < n; i++ {
		fn()
	}
	return true
}

// IntervalTicks fires the attached callback on a fixed period from its
// own goroutine. Used for headless runs.
type IntervalTicks struct {
	period time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewIntervalTicks creates a source ticking rate times per second.
func NewIntervalTicks(rate int) *IntervalTicks {
	if rate <= 0 {
		rate = 60
	}
	return &IntervalTicks{period: time.Second / time.Duration(rate)}
}

// Attach implements TickSource. Attaching again replaces the running
// callback.
func (it *IntervalTicks) Attach(fn func()) {
	it.Detach()

	stop := make(chan struct{})
	done := make(chan struct{})
	it.mu.Lock()
	it.stop, it.done = stop, done
	it.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(it.period)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// Detach implements TickSource and waits for an in-flight tick to finish.
func (it *IntervalTicks) Detach() {
	it.mu.Lock()
	stop, done := it.stop, it.done
	it.stop, it.done = nil, nil
	it.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
