// Package transcript accumulates engine tokens across overlapping decodes.
package transcript

import "strings"

// Token is one decoded vocabulary entry with its timing and confidence.
// Tokens are immutable once produced by the engine. Times are in 10 ms
// units from stream start, with -1 marking an unknown timestamp.
type Token struct {
	ID   int32   // vocabulary id
	TID  int32   // forced timestamp token id
	Text string  // token text, usually carrying its own leading space
	T0   int64   // start time, 10 ms units, -1 when unknown
	T1   int64   // end time, 10 ms units, -1 when unknown
	P    float32 // token probability
	TDTW int64   // DTW-aligned timestamp, 10 ms units, -1 when unknown
	VLen float32 // voice length of the token
}

// Text concatenates token text in order.
func Text(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}
