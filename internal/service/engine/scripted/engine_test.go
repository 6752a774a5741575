package scripted

import (
	"context"
	"testing"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine"
)

var _ engine.Engine = (*Engine)(nil)

func window(n int, level float32, offset int64) engine.Window {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = level
	}
	return engine.Window{Samples: samples, Offset: offset}
}

func TestTranscribe_SilenceYieldsNothing(t *testing.T) {
	e := New(16000)

	tokens, err := e.Transcribe(context.Background(), window(16000, 0, 0))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("tokens = %d, want 0 for silent window", len(tokens))
	}
}

func TestTranscribe_WordCountTracksDuration(t *testing.T) {
	cases := []struct {
		name    string
		samples int
		want    int
	}{
		{"half second", 8000, 1},
		{"one second", 16000, 2},
		{"three seconds", 48000, 6},
		{"ten seconds caps at script length", 160000, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(16000)
			tokens, err := e.Transcribe(context.Background(), window(tc.samples, 0.1, 0))
			if err != nil {
				t.Fatalf("transcribe: %v", err)
			}
			if len(tokens) != tc.want {
				t.Errorf("tokens = %d, want %d", len(tokens), tc.want)
			}
		})
	}
}

func TestTranscribe_GrowingWindowKeepsPrefix(t *testing.T) {
	e := New(16000)

	first, err := e.Transcribe(context.Background(), window(8000, 0.1, 0))
	if err != nil {
		t.Fatalf("first transcribe: %v", err)
	}
	second, err := e.Transcribe(context.Background(), window(16000, 0.1, 0))
	if err != nil {
		t.Fatalf("second transcribe: %v", err)
	}

	if len(second) <= len(first) {
		t.Fatalf("second decode = %d tokens, want more than %d", len(second), len(first))
	}
	for i := range first {
		if second[i].ID != first[i].ID || second[i].Text != first[i].Text {
			t.Errorf("token %d changed across decodes: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTranscribe_ShrinkAdvancesScript(t *testing.T) {
	e := New(16000)

	first, err := e.Transcribe(context.Background(), window(16000, 0.1, 0))
	if err != nil {
		t.Fatalf("first transcribe: %v", err)
	}
	next, err := e.Transcribe(context.Background(), window(8000, 0.1, 0))
	if err != nil {
		t.Fatalf("second transcribe: %v", err)
	}

	if len(next) == 0 {
		t.Fatal("no tokens after shrink")
	}
	if next[0].ID == first[0].ID {
		t.Errorf("token id %d repeated after shrink, want a new script", next[0].ID)
	}
	if next[0].Text == first[0].Text {
		t.Errorf("token text %q repeated after shrink, want a new script", next[0].Text)
	}
}

func TestTranscribe_OffsetShiftsTimes(t *testing.T) {
	e := New(16000)

	tokens, err := e.Transcribe(context.Background(), window(8000, 0.1, 16000))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens = %d, want 1", len(tokens))
	}
	if tokens[0].T0 != 100 || tokens[0].T1 != 150 {
		t.Errorf("token span = [%d, %d], want [100, 150]", tokens[0].T0, tokens[0].T1)
	}
}

func TestTranscribe_TokenFieldsFilled(t *testing.T) {
	e := New(16000)

	tokens, err := e.Transcribe(context.Background(), window(16000, 0.1, 0))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	for i, tok := range tokens {
		if tok.Text == "" {
			t.Errorf("token %d has empty text", i)
		}
		if tok.P <= 0 {
			t.Errorf("token %d p = %v, want positive", i, tok.P)
		}
		if tok.TDTW != -1 {
			t.Errorf("token %d t_dtw = %d, want -1", i, tok.TDTW)
		}
		if tok.VLen <= 0 {
			t.Errorf("token %d vlen = %v, want positive", i, tok.VLen)
		}
	}
}

func TestTranscribe_Deterministic(t *testing.T) {
	a, err := New(16000).Transcribe(context.Background(), window(16000, 0.1, 0))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	b, err := New(16000).Transcribe(context.Background(), window(16000, 0.1, 0))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("token counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("token %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
