package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// JSONLWriter writes one JSON record per line. It is safe for concurrent use.
type JSONLWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONLWriter on w
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc}
}

// Write appends rec as a single line
func (j *JSONLWriter) Write(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("write jsonl record for %s: %w", rec.URL, err)
	}
	return nil
}
