package audio

import (
	"errors"
	"fmt"
)

// Policy selects how the rolling window treats capacity and segment
// boundaries.
type Policy string

const (
	// PolicyReset clears the window to the triggering chunk at every
	// segment boundary and grows without bound in between.
	PolicyReset Policy = "reset"
	// PolicySliding keeps a fixed-capacity window over the whole stream,
	// evicting the oldest samples to admit new ones. Boundaries do not
	// clear it.
	PolicySliding Policy = "sliding"
)

// ErrUnknownPolicy reports an unrecognized buffer policy name.
var ErrUnknownPolicy = errors.New("audio: unknown buffer policy")

// Manager owns the rolling window the engine decodes on every step.
type Manager interface {
	// Append adds a chunk within an ongoing segment.
	Append(chunk []float32)

	// Boundary notifies the window that the chunk opens a new segment.
	Boundary(chunk []float32)

	// Window returns a copy of the retained samples, zero-padded at the
	// tail up to min samples. Padding never counts toward Len.
	Window(min int) []float32

	// Len is the retained sample count.
	Len() int

	// Offset is the cumulative count of samples evicted from the front,
	// i.e. the stream position of the first retained sample. Always zero
	// under the reset policy.
	Offset() int64
}

// NewManager returns the window implementation for the policy. capacity is
// the sliding window's hard sample limit and the reset window's initial
// allocation.
func NewManager(policy Policy, capacity int) (Manager, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("audio: window capacity must be positive, got %d", capacity)
	}
	switch policy {
	case PolicyReset:
		return &resetWindow{samples: make([]float32, 0, capacity)}, nil
	case PolicySliding:
		return &slidingWindow{samples: make([]float32, 0, capacity), capacity: capacity}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}
}

var (
	_ Manager = (*resetWindow)(nil)
	_ Manager = (*slidingWindow)(nil)
)

// resetWindow holds one segment's audio. It is replaced wholesale at each
// boundary and otherwise grows on demand.
type resetWindow struct {
	samples []float32
}

func (w *resetWindow) Append(chunk []float32) {
	w.samples = append(w.samples, chunk...)
}

func (w *resetWindow) Boundary(chunk []float32) {
	w.samples = w.samples[:0]
	w.samples = append(w.samples, chunk...)
}

func (w *resetWindow) Window(min int) []float32 {
	return padded(w.samples, min)
}

func (w *resetWindow) Len() int {
	return len(w.samples)
}

func (w *resetWindow) Offset() int64 {
	return 0
}

// slidingWindow keeps the newest capacity samples of the whole stream.
type slidingWindow struct {
	samples  []float32
	capacity int
	evicted  int64
}

func (w *slidingWindow) Append(chunk []float32) {
	over := len(w.samples) + len(chunk) - w.capacity
	if over <= 0 {
		w.samples = append(w.samples, chunk...)
		return
	}
	w.evicted += int64(over)
	if over >= len(w.samples) {
		// The chunk alone is at or over capacity; keep its newest samples.
		w.samples = w.samples[:0]
		w.samples = append(w.samples, chunk[len(chunk)-w.capacity:]...)
		return
	}
	kept := copy(w.samples, w.samples[over:])
	w.samples = append(w.samples[:kept], chunk...)
}

func (w *slidingWindow) Boundary(chunk []float32) {
	w.Append(chunk)
}

func (w *slidingWindow) Window(min int) []float32 {
	return padded(w.samples, min)
}

func (w *slidingWindow) Len() int {
	return len(w.samples)
}

func (w *slidingWindow) Offset() int64 {
	return w.evicted
}

func padded(samples []float32, min int) []float32 {
	n := len(samples)
	if n < min {
		n = min
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}
