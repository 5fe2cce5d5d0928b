package structpatch

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	gojson "github.com/goccy/go-json"

	"github.com/structpatch/go-structpatch/codec"
	"github.com/structpatch/go-structpatch/debug"
	"github.com/structpatch/go-structpatch/kpath"
)

// Patch is a set of (path, encoded value) entries describing how to
// transform one instance of a type into another. A patch with no entries
// means "no observable difference".
//
// Every entry passed the patch's validator when it was admitted. Iteration
// is deterministic: entries are always visited in sorted path order.
type Patch struct {
	// patchType names the type that produced the patch; diagnostic only.
	patchType string

	// validator admits entries. Shared with clones of this patch, so
	// implementations must be side-effect-free.
	validator Validator

	// c encodes and decodes entry values.
	c codec.Codec

	entries map[string]codec.Value
}

// Pair is one (path, encoded value) entry, used for bulk construction.
type Pair struct {
	Path  string
	Value codec.Value
}

// Option configures a patch at construction time.
type Option func(*Patch)

// WithValidator binds v as the patch's validator.
func WithValidator(v Validator) Option {
	return func(p *Patch) {
		if v != nil {
			p.validator = v
		}
	}
}

// WithCodec binds c as the patch's value codec.
func WithCodec(c codec.Codec) Option {
	return func(p *Patch) {
		if c != nil {
			p.c = c
		}
	}
}

// New constructs an empty patch for the named type. Without options the
// patch accepts all entries and encodes values as JSON.
func New(typeName string, opts ...Option) *Patch {
	p := &Patch{
		patchType: typeName,
		validator: AcceptAll(),
		c:         codec.Default,
		entries:   map[string]codec.Value{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromPairs builds a patch directly from (path, value) pairs without
// performing a diff, for hand-authored corrections and fixtures. Pairs are
// validated in the order given.
func FromPairs(typeName string, pairs []Pair, opts ...Option) (*Patch, error) {
	p := New(typeName, opts...)
	for _, pair := range pairs {
		if _, err := p.Add(pair.Path, pair.Value); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Type returns the name of the type that produced the patch.
func (p *Patch) Type() string {
	return p.patchType
}

// Codec returns the codec entry values are encoded with.
func (p *Patch) Codec() codec.Codec {
	return p.c
}

// Add validates the pair and inserts or overwrites the entry keyed by path,
// returning the patch for chaining. The empty path is never a valid entry
// key; whole-value entries use the Self sentinel. On failure the patch is
// left unmodified.
func (p *Patch) Add(path string, value codec.Value) (*Patch, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in Patch<%s>", ErrValidation, p.patchType)
	}
	if debug.Validate() {
		debug.Logf("validate %s entry %q = %s\n", p.patchType, path, value)
	}
	if err := p.validator.Validate(path, value); err != nil {
		return nil, fmt.Errorf("%w: %q in Patch<%s>: %v", ErrValidation, path, p.patchType, err)
	}
	p.entries[path] = value
	return p, nil
}

// Merge folds other's entries into p under the given prefix: an entry keyed
// by the Self sentinel lands on exactly prefix, any other key k lands on
// kpath.Join(prefix, k). Entries are folded in sorted key order and the
// first validation failure aborts the merge.
//
// This is how a composite type's diff is assembled from its fields' diffs
// without each field knowing its position in the parent.
func (p *Patch) Merge(prefix string, other *Patch) (*Patch, error) {
	if other == nil {
		return p, nil
	}
	for _, k := range other.Paths() {
		if _, err := p.Add(kpath.Join(prefix, k), other.entries[k]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// IsEmpty reports whether the patch records no difference.
func (p *Patch) IsEmpty() bool {
	return len(p.entries) == 0
}

// Len returns the number of entries.
func (p *Patch) Len() int {
	return len(p.entries)
}

// Get returns the value stored at path.
func (p *Patch) Get(path string) (codec.Value, bool) {
	v, ok := p.entries[path]
	return v, ok
}

// Paths returns all entry paths in sorted order.
func (p *Patch) Paths() []string {
	return slices.Sorted(maps.Keys(p.entries))
}

// Pairs returns all entries in sorted path order.
func (p *Patch) Pairs() []Pair {
	res := make([]Pair, 0, len(p.entries))
	for _, k := range p.Paths() {
		res = append(res, Pair{Path: k, Value: p.entries[k]})
	}
	return res
}

// Clone returns a copy sharing the validator and codec but owning its own
// entry map, so the copy can be snapshotted before further mutation.
func (p *Patch) Clone() *Patch {
	res := &Patch{
		patchType: p.patchType,
		validator: p.validator,
		c:         p.c,
		entries:   make(map[string]codec.Value, len(p.entries)),
	}
	for k, v := range p.entries {
		res.entries[k] = v.Clone()
	}
	return res
}

// String renders the patch for logs: the type name followed by one
// "path: value" line per entry in sorted order.
func (p *Patch) String() string {
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "Patch<%s>", p.patchType)
	for _, k := range p.Paths() {
		fmt.Fprintf(buf, "\n  %s: %s", k, p.entries[k])
	}
	return buf.String()
}

type patchJSON struct {
	Type    string            `json:"type"`
	Codec   string            `json:"codec"`
	Entries map[string]string `json:"entries"`
}

// MarshalJSON serializes the patch for transport. The validator is not
// serialized; a decoded patch accepts all entries.
func (p *Patch) MarshalJSON() ([]byte, error) {
	pj := patchJSON{
		Type:    p.patchType,
		Codec:   p.c.Name(),
		Entries: make(map[string]string, len(p.entries)),
	}
	for k, v := range p.entries {
		pj.Entries[k] = string(v)
	}
	return gojson.Marshal(&pj)
}

func (p *Patch) UnmarshalJSON(d []byte) error {
	pj := patchJSON{}
	if err := gojson.Unmarshal(d, &pj); err != nil {
		return err
	}
	c := codec.ByName(pj.Codec)
	if c == nil {
		c = codec.Default
	}
	res := New(pj.Type, WithCodec(c))
	for k, v := range pj.Entries {
		res.entries[k] = codec.Value(v)
	}
	*p = *res
	return nil
}
