// Package vad classifies audio chunks as speech or silence from short-term
// signal energy.
package vad

import (
	"fmt"
	"math"
)

// Activity is the classification of one audio chunk.
type Activity int

const (
	// Silence - the chunk does not end in active speech.
	Silence Activity = iota
	// Speech - the chunk tail is loud relative to the chunk as a whole.
	Speech
)

// String returns the string representation of the activity.
func (a Activity) String() string {
	switch a {
	case Silence:
		return "SILENCE"
	case Speech:
		return "SPEECH"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(a))
	}
}

// Config holds detector tuning.
type Config struct {
	SampleRate int     // samples per second of the incoming audio
	WindowMs   int     // analysis window over the chunk tail, in milliseconds
	Threshold  float32 // energy ratio above which the tail counts as speech
	CutoffHz   float32 // high-pass cutoff; 0 disables the pre-filter
}

// DefaultConfig returns the detector tuning used by the shipped pipeline.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		WindowMs:   250,
		Threshold:  0.2,
		CutoffHz:   100.0,
	}
}

// Classify labels one chunk of mono samples. The tail window's mean absolute
// amplitude is compared against the whole chunk's, after a high-pass filter
// suppresses low-frequency rumble. Chunks shorter than one analysis window
// classify as Silence rather than churning out spurious segments.
//
// Classify is a pure function: the caller's samples are never modified.
func Classify(samples []float32, cfg Config) Activity {
	window := cfg.SampleRate * cfg.WindowMs / 1000
	if window >= len(samples) {
		return Silence
	}

	filtered := make([]float32, len(samples))
	copy(filtered, samples)
	if cfg.CutoffHz > 0 {
		highPass(filtered, cfg.CutoffHz, cfg.SampleRate)
	}

	var energyAll, energyLast float32
	for i, s := range filtered {
		a := float32(math.Abs(float64(s)))
		energyAll += a
		if i >= len(filtered)-window {
			energyLast += a
		}
	}
	energyAll /= float32(len(filtered))
	energyLast /= float32(window)

	if energyLast > cfg.Threshold*energyAll {
		return Speech
	}
	return Silence
}

// highPass applies a one-pole filter in place. The first sample seeds the
// recurrence and passes through unfiltered.
func highPass(samples []float32, cutoff float32, sampleRate int) {
	if len(samples) == 0 {
		return
	}
	rc := 1.0 / (2.0 * math.Pi * float64(cutoff))
	dt := 1.0 / float64(sampleRate)
	alpha := float32(dt / (rc + dt))

	y := samples[0]
	for i := 1; i < len(samples); i++ {
		y = alpha * (y + samples[i] - samples[i-1])
		samples[i] = y
	}
}
