package remote

import (
	"fmt"
	"io"

	"github.com/user-none/eblitnes/controller"
)

// Recorder writes observed per-frame controller states as a script
// ParseScript can read back. Consecutive identical frames are merged.
type Recorder struct {
	w     io.Writer
	last  controller.State
	count int
	err   error
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

// Observe records the controller state for one frame.
func (r *Recorder) Observe(s controller.State) {
	if r.count > 0 && s != r.last {
		r.flush()
	}
	r.last = s
	r.count++
}

// Close writes the pending step and returns the first write error.
func (r *Recorder) Close() error {
	r.flush()
	return r.err
}

func (r *Recorder) flush() {
	if r.count == 0 {
		return
	}
	if r.err == nil {
		_, r.err = fmt.Fprintf(r.w, "%d %s\n", r.count, r.last)
	}
	r.count = 0
}
