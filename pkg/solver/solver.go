// Package solver is the boundary to the external density solver. The solver
// yields one Frame per optimisation step through a Stepper; Drive pulls
// frames until the stepper is done or the context is cancelled. Recorded
// runs are replayed from JSON.
package solver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/field"
	"github.com/chazu/topomesh/pkg/logging"
)

var log = logging.Named("solver")

// ErrExhausted is returned by Step on a stepper that is already done.
var ErrExhausted = errors.New("no frames left")

// Frame is one solver step. Compliance, Change and Volume are reported for
// display only.
type Frame struct {
	Iter       int                 `json:"iter"`
	Compliance float64             `json:"compliance"`
	Change     float64             `json:"change"`
	Volume     float64             `json:"volume"`
	Field      *field.DensityField `json:"field"`
}

// Stepper produces frames one at a time. Step must not be called after Done
// reports true.
type Stepper interface {
	Step() (Frame, error)
	Done() bool
}

// Replay steps through a fixed list of frames.
type Replay struct {
	frames []Frame
	next   int
}

// NewReplay returns a stepper over frames in order.
func NewReplay(frames []Frame) *Replay {
	return &Replay{frames: frames}
}

// Step returns the next frame.
func (r *Replay) Step() (Frame, error) {
	if r.Done() {
		return Frame{}, ErrExhausted
	}
	f := r.frames[r.next]
	r.next++
	return f, nil
}

// Done reports whether every frame has been returned.
func (r *Replay) Done() bool {
	return r.next >= len(r.frames)
}

// Drive steps s until it is done, handing every frame to fn. The context is
// checked before each step; a cancelled context, a step error or an error
// from fn stops the loop. Drive returns the number of frames handed to fn.
func Drive(ctx context.Context, s Stepper, fn func(Frame) error) (int, error) {
	n := 0
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			log.Debugf("stopped after %d frames: %v", n, err)
			return n, err
		}
		f, err := s.Step()
		if err != nil {
			return n, errors.Wrapf(err, "solver: step %d", n)
		}
		if err := fn(f); err != nil {
			return n, errors.Wrapf(err, "solver: frame %d", f.Iter)
		}
		n++
	}
	return n, nil
}
