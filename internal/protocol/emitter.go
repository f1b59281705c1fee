package protocol

import (
	"io"
	"sync"

	"github.com/goccy/go-json"
)

// Emitter writes one JSON object per line. Writes from the dispatcher and
// from watchers are serialized so lines never interleave.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit marshals v and writes it as a single line.
func (e *Emitter) Emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.w.Write(data)
	return err
}
