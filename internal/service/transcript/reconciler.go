package transcript

// Reconciler merges successive decodes of an overlapping audio window
// into a single growing token sequence. Each decode re-reads audio the
// previous decode already saw, so the new tokens usually restate a
// suffix of the accumulated ones. The reconciler finds that restated
// suffix and splices the fresh decode over it instead of appending a
// duplicate.
//
// A cursor remembers where the previous splice happened. Tokens before
// the cursor are confirmed and never scanned again, so repeated ids in
// the confirmed prefix cannot cause a mid-sequence truncation.
type Reconciler struct {
	tokens []Token
	cursor int
}

// NewReconciler returns an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Merge splices decoded into the accumulated sequence. It scans the
// unconfirmed region for the first occurrence of decoded[0]'s id; on a
// match the region from that point on is replaced by decoded and the
// cursor moves to the match. Without a match decoded is appended and
// the cursor stays put. It returns the number of accumulated tokens
// dropped by the splice.
func (r *Reconciler) Merge(decoded []Token) int {
	if len(decoded) == 0 {
		return 0
	}
	for i := r.cursor; i < len(r.tokens); i++ {
		if r.tokens[i].ID == decoded[0].ID {
			dropped := len(r.tokens) - i
			r.tokens = append(r.tokens[:i], decoded...)
			r.cursor = i
			return dropped
		}
	}
	r.tokens = append(r.tokens, decoded...)
	return 0
}

// Reset discards all accumulated tokens. Called when a new segment
// opens and the audio window no longer overlaps the previous decode.
func (r *Reconciler) Reset() {
	r.tokens = r.tokens[:0]
	r.cursor = 0
}

// Tokens returns the accumulated sequence. The slice is reused across
// merges; callers that hold on to it must copy.
func (r *Reconciler) Tokens() []Token {
	return r.tokens
}

// Text returns the concatenated text of the accumulated sequence.
func (r *Reconciler) Text() string {
	return Text(r.tokens)
}
