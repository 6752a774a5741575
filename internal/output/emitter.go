package output

import (
	"encoding/json"
	"io"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/models"
)

// Emitter writes records as newline-delimited JSON. HTML escaping is
// off so token text passes through byte for byte.
type Emitter struct {
	enc *json.Encoder
}

// NewEmitter returns an emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Emitter{enc: enc}
}

// Emit writes one record followed by a newline.
func (e *Emitter) Emit(rec models.Record) error {
	return e.enc.Encode(rec)
}
