// Package segment tracks speech segment boundaries across a chunk stream.
package segment

import (
	"github.com/sinhayogesh/speech-stream-transcriber/internal/vad"
)

// Controller decides where one speech segment ends and the next begins.
// It remembers the previous chunk's classification and a 1-based segment
// counter. The pipeline drives it from a single goroutine, so it needs no
// locking.
//
// Boundary rule (previous classification vs. current):
//
//	previous  current   boundary
//	SILENCE   SILENCE   yes
//	SILENCE   SPEECH    yes
//	SPEECH    SILENCE   yes
//	SPEECH    SPEECH    no
//
// The only continuation is speech following speech; any other step restarts
// the segment. The previous classification starts as SILENCE, so the first
// chunk of a run always opens segment 1.
type Controller struct {
	prev  vad.Activity
	index int
}

// New creates a Controller in the initial silence state with the counter
// at zero.
func New() *Controller {
	return &Controller{prev: vad.Silence}
}

// Observe consumes one chunk classification and reports whether it opens a
// new segment. On a boundary the segment counter advances by exactly one.
func (c *Controller) Observe(curr vad.Activity) bool {
	boundary := curr != c.prev || c.prev == vad.Silence
	if boundary {
		c.index++
	}
	c.prev = curr
	return boundary
}

// Index returns the 1-based index of the current segment. It is zero only
// before the first chunk has been observed.
func (c *Controller) Index() int {
	return c.index
}

// Previous returns the classification of the last observed chunk.
func (c *Controller) Previous() vad.Activity {
	return c.prev
}
