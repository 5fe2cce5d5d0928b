package structpatch

import (
	"fmt"
	"reflect"
	"time"

	"github.com/structpatch/go-structpatch/codec"
	"github.com/structpatch/go-structpatch/debug"
)

// HistoryEntry records one applied patch together with the inverse patch
// that undoes it.
type HistoryEntry struct {
	Forward *Patch
	Inverse *Patch
	At      time.Time
}

// History keeps an ordered record of patches applied to instances of one
// type, so changes can be rolled back to a prior state and error logs can
// show what changed. Application is all-or-nothing: the patch is applied
// to a working copy which replaces the target only on full success.
type History struct {
	c       codec.Codec
	entries []HistoryEntry
}

// NewHistory returns an empty history whose snapshots are taken with c,
// or the default codec when c is nil.
func NewHistory(c codec.Codec) *History {
	if c == nil {
		c = codec.Default
	}
	return &History{c: c}
}

// Apply applies p to target, recording the forward patch and its computed
// inverse. target must be a non-nil pointer. On error the target is left
// untouched and nothing is recorded.
func (h *History) Apply(target any, p *Patch) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("history: target must be a non-nil pointer, got %T", target)
	}
	before, err := h.snapshot(rv)
	if err != nil {
		return err
	}
	work, err := h.snapshot(rv)
	if err != nil {
		return err
	}
	// p decodes with its own codec; h.c is only for snapshots and the
	// inverse diff.
	if err := Apply(work.Interface(), p); err != nil {
		return err
	}
	inverse, err := Diff(work.Elem().Interface(), before.Elem().Interface(), WithCodec(h.c))
	if err != nil {
		return err
	}
	rv.Elem().Set(work.Elem())
	h.entries = append(h.entries, HistoryEntry{
		Forward: p.Clone(),
		Inverse: inverse,
		At:      time.Now(),
	})
	if debug.History() {
		debug.Logf("history: recorded %s with %d-entry inverse\n", p.Type(), inverse.Len())
	}
	return nil
}

// Pop reverts target to the state before the most recent Apply and returns
// the forward patch that would redo the reverted change.
func (h *History) Pop(target any) (*Patch, error) {
	if len(h.entries) == 0 {
		return nil, fmt.Errorf("history: empty")
	}
	last := h.entries[len(h.entries)-1]
	if err := Apply(target, last.Inverse); err != nil {
		return nil, err
	}
	h.entries = h.entries[:len(h.entries)-1]
	return last.Forward, nil
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns the i-th recorded entry, oldest first.
func (h *History) At(i int) HistoryEntry {
	return h.entries[i]
}

// snapshot deep-copies the pointed-to value via a codec round trip.
func (h *History) snapshot(rv reflect.Value) (reflect.Value, error) {
	enc, err := h.c.Marshal(rv.Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: snapshot: %v", ErrConversion, err)
	}
	res := reflect.New(rv.Type().Elem())
	if err := h.c.Unmarshal(enc, res.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: snapshot: %v", ErrDecode, err)
	}
	return res, nil
}
