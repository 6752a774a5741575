// Package engine defines the interface for transcription backends.
package engine

import (
	"context"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
)

// Window is one decode request. Samples hold the current rolling
// window as mono 16 kHz floats in [-1, 1]; Offset counts the samples
// evicted before Samples[0], letting the backend report token times
// relative to true stream time rather than window time.
type Window struct {
	Samples []float32
	Offset  int64
}

// Engine decodes an audio window into tokens. Backends re-read the
// whole window on every call; reconciling successive results is the
// caller's job.
type Engine interface {
	// Transcribe decodes the window and returns its tokens in stream
	// order. Token times are already shifted by the window offset.
	Transcribe(ctx context.Context, win Window) ([]transcript.Token, error)

	// Close releases backend resources.
	Close() error
}
