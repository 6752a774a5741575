// Package schema validates transcript events before publication.
package schema

import (
	"fmt"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/models"
)

// Validator checks events against the transcript event contract.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate rejects events that would break downstream consumers.
func (v *Validator) Validate(event models.Event) error {
	switch event.EventType {
	case models.EventTranscriptPartial, models.EventTranscriptFinal:
	default:
		return fmt.Errorf("schema: unknown event type %q", event.EventType)
	}
	if event.StreamID == "" {
		return fmt.Errorf("schema: missing stream id")
	}
	if event.Segment < 1 {
		return fmt.Errorf("schema: segment %d out of range, segments start at 1", event.Segment)
	}
	if event.Timestamp <= 0 {
		return fmt.Errorf("schema: missing timestamp")
	}
	if len(event.Record.Transcription) == 0 {
		return fmt.Errorf("schema: record has no transcription entries")
	}
	return nil
}
