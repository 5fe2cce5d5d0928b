// Package jsonpatch bridges patches to RFC 6902 JSON Patch documents, for
// hosts that transport changes to systems speaking the standard format.
// The bridge requires JSON-encoded patch values.
package jsonpatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	evanjsonpatch "github.com/evanphx/json-patch"
	gojson "github.com/goccy/go-json"

	structpatch "github.com/structpatch/go-structpatch"
	"github.com/structpatch/go-structpatch/kpath"
)

type operation struct {
	Op    string            `json:"op"`
	Path  string            `json:"path"`
	Value gojson.RawMessage `json:"value,omitempty"`
}

// Encode renders p as an RFC 6902 JSON Patch document targeting doc. The
// document decides the operation: a value entry addressing an existing
// member or element becomes "replace", a missing one "add". An "add" at an
// existing array index would insert and shift, not overwrite. Tombstones
// become "remove", with tombstoned indices of one array ordered descending
// so earlier removals do not shift later ones.
func Encode(doc []byte, p *structpatch.Patch) ([]byte, error) {
	var root any
	if err := gojson.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("cannot decode target document: %w", err)
	}
	ops := make([]operation, 0, p.Len())
	dels := map[string][]int{}
	for _, pair := range p.Pairs() {
		kp, err := kpath.Parse(pair.Path)
		if err != nil {
			return nil, err
		}
		if pair.Value.IsTombstone() {
			if last := lastSegment(kp); last != nil && last.Index != nil {
				pp := pointer(parentOf(kp))
				dels[pp] = append(dels[pp], *last.Index)
				continue
			}
			ops = append(ops, operation{Op: "remove", Path: pointer(kp)})
			continue
		}
		if !gojson.Valid(pair.Value) {
			return nil, fmt.Errorf("value at %q is not JSON (codec %s)", pair.Path, p.Codec().Name())
		}
		op := "add"
		if exists(root, kp) {
			op = "replace"
		}
		ops = append(ops, operation{Op: op, Path: pointer(kp), Value: gojson.RawMessage(pair.Value)})
	}
	parents := make([]string, 0, len(dels))
	for pp := range dels {
		parents = append(parents, pp)
	}
	sort.Strings(parents)
	for _, pp := range parents {
		idxs := dels[pp]
		sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
		for _, i := range idxs {
			ops = append(ops, operation{Op: "remove", Path: pp + "/" + strconv.Itoa(i)})
		}
	}
	return gojson.Marshal(ops)
}

// ApplyJSON applies p to a JSON document.
func ApplyJSON(doc []byte, p *structpatch.Patch) ([]byte, error) {
	ops, err := Encode(doc, p)
	if err != nil {
		return nil, err
	}
	jp, err := evanjsonpatch.DecodePatch(ops)
	if err != nil {
		return nil, fmt.Errorf("cannot decode patch: %w", err)
	}
	return jp.Apply(doc)
}

// exists reports whether kp addresses a value present in doc.
func exists(doc any, kp *kpath.KPath) bool {
	cur := doc
	for x := kp; x != nil; x = x.Next {
		switch {
		case x.Field != nil:
			m, ok := cur.(map[string]any)
			if !ok {
				return false
			}
			cur, ok = m[*x.Field]
			if !ok {
				return false
			}
		case x.Index != nil:
			s, ok := cur.([]any)
			if !ok || *x.Index < 0 || *x.Index >= len(s) {
				return false
			}
			cur = s[*x.Index]
		}
	}
	return true
}

func lastSegment(kp *kpath.KPath) *kpath.KPath {
	if kp == nil {
		return nil
	}
	for kp.Next != nil {
		kp = kp.Next
	}
	return kp
}

// parentOf copies kp without its last segment; the root stays nil.
func parentOf(kp *kpath.KPath) *kpath.KPath {
	if kp == nil || kp.Next == nil {
		return nil
	}
	head := &kpath.KPath{}
	cur := head
	for x := kp; x.Next != nil; x = x.Next {
		*cur = kpath.KPath{Field: x.Field, Index: x.Index}
		if x.Next.Next != nil {
			cur.Next = &kpath.KPath{}
			cur = cur.Next
		}
	}
	return head
}

// pointer converts a kinded path to a JSON Pointer. The root (and so the
// whole-value sentinel) maps to "".
func pointer(kp *kpath.KPath) string {
	var b strings.Builder
	for x := kp; x != nil; x = x.Next {
		b.WriteByte('/')
		if x.Field != nil {
			b.WriteString(escapePointer(*x.Field))
			continue
		}
		if x.Index != nil {
			b.WriteString(strconv.Itoa(*x.Index))
		}
	}
	return b.String()
}

func escapePointer(f string) string {
	f = strings.ReplaceAll(f, "~", "~0")
	return strings.ReplaceAll(f, "/", "~1")
}
