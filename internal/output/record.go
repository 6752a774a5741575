// Package output renders accumulated tokens as transcription records
// and writes them to a stream, one JSON object per line.
package output

import (
	"fmt"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/models"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
)

// BuildRecord assembles the record for one segment snapshot. With
// fullDetail the per-token array is always present, even when empty;
// without it only the concatenated text is carried. Token spans are
// included only when both endpoints are known.
func BuildRecord(segment int, tokens []transcript.Token, fullDetail bool) models.Record {
	entry := models.SegmentTranscription{
		Segment: segment,
		Text:    transcript.Text(tokens),
	}

	if fullDetail {
		details := make([]models.TokenDetail, 0, len(tokens))
		for _, tok := range tokens {
			d := models.TokenDetail{
				Text: tok.Text,
				ID:   tok.ID,
				TID:  tok.TID,
				P:    tok.P,
				TDTW: tok.TDTW,
				VLen: int64(tok.VLen),
			}
			if tok.T0 > -1 && tok.T1 > -1 {
				d.Timestamps = &models.TimeRange{
					From: FormatTimestamp(tok.T0),
					To:   FormatTimestamp(tok.T1),
				}
				d.Offsets = &models.OffsetRange{
					From: tok.T0 * 10,
					To:   tok.T1 * 10,
				}
			}
			details = append(details, d)
		}
		entry.Tokens = &details
	}

	return models.Record{
		Transcription: []models.SegmentTranscription{entry},
	}
}

// FormatTimestamp renders a time in 10 ms units as hh:mm:ss.mmm.
func FormatTimestamp(t int64) string {
	msec := t * 10
	hr := msec / (1000 * 60 * 60)
	msec -= hr * (1000 * 60 * 60)
	min := msec / (1000 * 60)
	msec -= min * (1000 * 60)
	sec := msec / 1000
	msec -= sec * 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hr, min, sec, msec)
}
