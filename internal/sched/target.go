package sched

import (
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is an animation target whose state lives in a JSON document,
// the shape widgets use for serializable view state. Property paths are
// gjson/sjson paths, so nested slots like "layout.sidebar.width" animate
// directly.
//
// Document implements Animatable and is safe for concurrent reads while
// the frame pump writes.
type Document struct {
	mu    sync.RWMutex
	raw   []byte
	dirty bool
}

// NewDocument creates a document target from initial JSON. Empty input
// starts as an empty object.
func NewDocument(raw []byte) *Document {
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	return &Document{raw: raw}
}

// SetProperty writes a numeric slot at the given path.
func (d *Document) SetProperty(path string, value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	raw, err := sjson.SetBytes(d.raw, path, value)
	if err != nil {
		return
	}
	d.raw = raw
}

// Invalidate marks the document as needing a re-render.
func (d *Document) Invalidate() {
	d.mu.Lock()
	d.dirty = true
	d.mu.Unlock()
}

// Number reads a numeric slot. Returns 0 when the path is absent.
func (d *Document) Number(path string) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return gjson.GetBytes(d.raw, path).Float()
}

// Bytes returns a copy of the current JSON state.
func (d *Document) Bytes() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]byte, len(d.raw))
	copy(out, d.raw)
	return out
}

// Dirty reports and clears the dirty flag. The render pipeline polls this
// once per frame.
func (d *Document) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.dirty
	d.dirty = false
	return was
}
