// Package scripted provides a deterministic engine for running the
// pipeline without a model file. It simulates realistic decoder
// behavior: silence decodes to nothing, a growing window re-yields the
// same token prefix plus new words, and a window that shrinks back to
// a single chunk moves on to the next scripted utterance.
package scripted

import (
	"context"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
)

// DefaultScripts provides sample utterances for simulation. Each decode
// yields a prefix of the active script sized to the window duration.
var DefaultScripts = [][]string{
	{"I", "want", "to", "cancel", "my", "subscription"},
	{"Yes", "please", "go", "ahead"},
	{"Can", "you", "help", "me", "with", "my", "account"},
	{"I've", "been", "waiting", "for", "over", "an", "hour"},
	{"Thank", "you", "very", "much"},
}

// One scripted word is spoken per this many 10 ms units of window.
const wordSpanCs = 50

// Windows quieter than this decode to no tokens at all.
const energyFloor = 1e-4

// Engine implements engine.Engine with scripted decodes. It is not
// safe for concurrent use; the pipeline calls it from a single loop.
type Engine struct {
	sampleRate int
	scripts    [][]string
	active     int // index of the current script
	lastLen    int // previous window length, a shrink advances the script
}

// New returns a scripted engine for audio at the given sample rate.
func New(sampleRate int) *Engine {
	return &Engine{
		sampleRate: sampleRate,
		scripts:    DefaultScripts,
	}
}

// Transcribe yields tokens for the leading words of the active script,
// one word per half second of window, with stable ids so that repeated
// decodes of a growing window agree on their shared prefix.
func (e *Engine) Transcribe(_ context.Context, win engine.Window) ([]transcript.Token, error) {
	if len(win.Samples) < e.lastLen {
		e.active++
	}
	e.lastLen = len(win.Samples)

	if meanAbs(win.Samples) < energyFloor {
		return nil, nil
	}

	script := e.scripts[e.active%len(e.scripts)]
	durCs := int64(len(win.Samples)) * 100 / int64(e.sampleRate)
	words := int(durCs / wordSpanCs)
	if words < 1 {
		words = 1
	}
	if words > len(script) {
		words = len(script)
	}

	offsetCs := win.Offset * 100 / int64(e.sampleRate)
	base := int32(1000 * (e.active + 1))
	tokens := make([]transcript.Token, 0, words)
	for i := 0; i < words; i++ {
		t0 := offsetCs + int64(i)*wordSpanCs
		tokens = append(tokens, transcript.Token{
			ID:   base + int32(i),
			TID:  base,
			Text: " " + script[i],
			T0:   t0,
			T1:   t0 + wordSpanCs,
			P:    0.9,
			TDTW: -1,
			VLen: float32(len(script[i])),
		})
	}
	return tokens, nil
}

// Close releases nothing; the scripted engine holds no resources.
func (e *Engine) Close() error {
	return nil
}

func meanAbs(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float32
	for _, s := range samples {
		if s < 0 {
			sum -= s
		} else {
			sum += s
		}
	}
	return sum / float32(len(samples))
}
