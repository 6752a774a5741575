// Package whisper adapts the whisper.cpp Go bindings to the engine
// interface. The model loads once at startup; every Transcribe call
// decodes the full window on a fresh context.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	whispercpp "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
)

// Config holds decode parameters applied to every engine call.
type Config struct {
	ModelPath       string
	Language        string // "auto" lets the model detect per window
	Translate       bool
	Threads         int // 0 picks min(4, NumCPU)
	MaxTokens       int // per-segment token cap, 0 leaves the model default
	BeamSize        int // <= 0 keeps greedy sampling
	TokenTimestamps bool
}

// Engine runs whisper.cpp over the rolling window.
type Engine struct {
	model whispercpp.Model
	cfg   Config
}

// New loads the model and validates the configured language against
// it, so a bad language surfaces at startup rather than on the first
// chunk.
func New(cfg Config) (*Engine, error) {
	model, err := whispercpp.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", cfg.ModelPath, err)
	}

	probe, err := model.NewContext()
	if err != nil {
		model.Close()
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if model.IsMultilingual() {
		if err := probe.SetLanguage(cfg.Language); err != nil {
			model.Close()
			return nil, fmt.Errorf("whisper: unknown language %q: %w", cfg.Language, err)
		}
	} else if cfg.Language != "en" && cfg.Language != "auto" {
		model.Close()
		return nil, fmt.Errorf("whisper: model %q only decodes english, got language %q", cfg.ModelPath, cfg.Language)
	}

	return &Engine{model: model, cfg: cfg}, nil
}

// Transcribe decodes the window and returns its text tokens with times
// shifted from window-relative to stream-relative.
func (e *Engine) Transcribe(ctx context.Context, win engine.Window) ([]transcript.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if e.model.IsMultilingual() {
		if err := wctx.SetLanguage(e.cfg.Language); err != nil {
			return nil, fmt.Errorf("whisper: set language: %w", err)
		}
	}
	wctx.SetTranslate(e.cfg.Translate)
	wctx.SetThreads(uint(e.threads()))
	wctx.SetTokenTimestamps(e.cfg.TokenTimestamps)
	if e.cfg.MaxTokens > 0 {
		wctx.SetMaxTokensPerSegment(uint(e.cfg.MaxTokens))
	}
	if e.cfg.BeamSize > 0 {
		wctx.SetBeamSize(e.cfg.BeamSize)
	}

	if err := wctx.Process(win.Samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process: %w", err)
	}

	offsetCs := win.Offset * 100 / int64(whispercpp.SampleRate)
	var tokens []transcript.Token
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: next segment: %w", err)
		}
		for _, tok := range seg.Tokens {
			if !wctx.IsText(tok) {
				continue
			}
			tokens = append(tokens, toToken(tok, offsetCs))
		}
	}
	return tokens, nil
}

// Close releases the model.
func (e *Engine) Close() error {
	return e.model.Close()
}

func (e *Engine) threads() int {
	if e.cfg.Threads > 0 {
		return e.cfg.Threads
	}
	n := runtime.NumCPU()
	if n > 4 {
		n = 4
	}
	return n
}

// toToken converts a binding token. The binding reports times as
// durations with -10 ms standing in for unknown; those stay -1 in 10 ms
// units and are never offset-shifted. The binding does not surface the
// forced timestamp id, DTW times, or voice length, so tid is zero,
// t_dtw stays unknown, and vlen falls back to the text length.
func toToken(tok whispercpp.Token, offsetCs int64) transcript.Token {
	t0 := durationCs(tok.Start)
	t1 := durationCs(tok.End)
	if t0 >= 0 {
		t0 += offsetCs
	}
	if t1 >= 0 {
		t1 += offsetCs
	}
	return transcript.Token{
		ID:   int32(tok.Id),
		TID:  0,
		Text: tok.Text,
		T0:   t0,
		T1:   t1,
		P:    tok.P,
		TDTW: -1,
		VLen: float32(len(tok.Text)),
	}
}

func durationCs(d time.Duration) int64 {
	return int64(d / (10 * time.Millisecond))
}
