// Package models defines the data structures for transcription records
// and the events that carry them.
package models

// TimeRange is a token's wall-clock span rendered as hh:mm:ss.mmm.
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// OffsetRange is a token's span in milliseconds from stream start.
type OffsetRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// TokenDetail is the per-token payload included when full detail is on.
// Timestamps and Offsets are present only when the engine produced a
// known start and end time for the token.
type TokenDetail struct {
	Text       string       `json:"text"`
	Timestamps *TimeRange   `json:"timestamps,omitempty"`
	Offsets    *OffsetRange `json:"offsets,omitempty"`
	ID         int32        `json:"id"`
	TID        int32        `json:"tid"`
	P          float32      `json:"p"`
	TDTW       int64        `json:"t_dtw"`
	VLen       int64        `json:"vlen"`
}

// SegmentTranscription is one segment's accumulated text. Tokens is a
// pointer so that full-detail mode emits an empty array rather than
// omitting the field.
type SegmentTranscription struct {
	Segment int            `json:"segment"`
	Text    string         `json:"text"`
	Tokens  *[]TokenDetail `json:"tokens,omitempty"`
}

// Record is one emitted transcription snapshot.
type Record struct {
	Transcription []SegmentTranscription `json:"transcription"`
}

// Event wraps a record for publication to downstream consumers.
type Event struct {
	EventType string `json:"eventType"`
	StreamID  string `json:"streamId"`
	Segment   int    `json:"segment"`
	Record    Record `json:"record"`
	Timestamp int64  `json:"timestamp"`
}

// Event types carried in Event.EventType.
const (
	EventTranscriptPartial = "transcript.partial"
	EventTranscriptFinal   = "transcript.final"
)
