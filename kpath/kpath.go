package kpath

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Self is the whole-value sentinel. A patch entry keyed by Self addresses
// the value a patch was produced from, not one of its fields. Merging under
// a prefix rewrites a Self key to exactly the prefix. A real field named
// "$" is quoted when rendered, so the sentinel is never ambiguous.
const Self = "$"

// KPath represents a kinded path into a nested value. Kinded paths encode
// the container kind in the syntax itself:
//   - "a.b" → field "b" of object field "a"
//   - "a[0]" → element 0 of sequence field "a"
//   - "a.'odd key'" → quoted field with special characters
//
// A KPath is a linked list of segments; a nil *KPath is the root.
type KPath struct {
	Field *string // object/map field name
	Index *int    // sequence index
	Next  *KPath
}

// IsSelf reports whether the path string is the whole-value sentinel.
func IsSelf(p string) bool {
	return p == Self
}

// String returns the canonical kinded path string.
// Example:
//
//	KPath{Field: &"a", Next: &KPath{Index: &0}} → "a[0]"
func (p *KPath) String() string {
	if p == nil {
		return ""
	}
	buf := bytes.NewBuffer(nil)
	x := p
	for x != nil {
		if x.Field != nil {
			if buf.Len() > 0 {
				buf.WriteByte('.')
			}
			buf.WriteString(quoteField(*x.Field))
			x = x.Next
			continue
		}
		if x.Index != nil {
			fmt.Fprintf(buf, "[%d]", *x.Index)
			x = x.Next
			continue
		}
		x = x.Next
	}
	return buf.String()
}

// SegmentString returns the canonical string of this single segment.
func (p *KPath) SegmentString() string {
	if p == nil {
		return ""
	}
	if p.Field != nil {
		return quoteField(*p.Field)
	}
	if p.Index != nil {
		return fmt.Sprintf("[%d]", *p.Index)
	}
	return ""
}

// Parse parses a kinded path string. The empty string and the Self sentinel
// both parse to the root (nil).
func Parse(p string) (*KPath, error) {
	if p == "" || p == Self {
		return nil, nil
	}
	root := &KPath{}
	if err := parseFrag(p, root, true); err != nil {
		return nil, fmt.Errorf("path %q: %w", p, err)
	}
	return root, nil
}

// Join joins a prefix path with a suffix path at the string level.
// The Self sentinel suffix maps to exactly the prefix, which is how a child
// patch's whole-value entry lands on the child's own key in its parent.
//
// Examples:
//   - Join("a", "b.c") → "a.b.c"
//   - Join("a", "[0]") → "a[0]"
//   - Join("a", Self) → "a"
//   - Join("", "b") → "b"
func Join(prefix, suffix string) string {
	if prefix == "" || prefix == Self {
		return suffix
	}
	if suffix == "" || suffix == Self {
		return prefix
	}
	if suffix[0] == '[' {
		return prefix + suffix
	}
	return prefix + "." + suffix
}

// Split splits a kinded path into its first segment and the remaining path.
//
// Examples:
//   - Split("a.b.c") → ("a", "b.c")
//   - Split("[0].b") → ("[0]", "b")
//   - Split("a") → ("a", "")
func Split(p string) (first, rest string, err error) {
	kp, err := Parse(p)
	if err != nil {
		return "", "", err
	}
	if kp == nil {
		return p, "", nil
	}
	return kp.SegmentString(), kp.Next.String(), nil
}

// SegmentField extracts the field name from a segment string. The second
// return is false for index segments and the Self sentinel.
func SegmentField(seg string) (string, bool) {
	if seg == "" || seg == Self {
		return "", false
	}
	kp, err := Parse(seg)
	if err != nil || kp == nil || kp.Field == nil || kp.Next != nil {
		return "", false
	}
	return *kp.Field, true
}

// FieldSegment renders a field name as a single path segment, quoting it
// when it contains special characters.
func FieldSegment(name string) string {
	return quoteField(name)
}

// IndexSegment renders a sequence index as a single path segment.
func IndexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func (p *KPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *KPath) UnmarshalText(d []byte) error {
	pp, err := Parse(string(d))
	if err != nil {
		return err
	}
	if pp == nil {
		*p = KPath{}
		return nil
	}
	*p = *pp
	return nil
}

func quoteField(f string) string {
	if !needsQuote(f) {
		return f
	}
	return "'" + strings.Replace(f, "'", "\\'", -1) + "'"
}

func needsQuote(f string) bool {
	if f == "" || f == Self {
		return true
	}
	return strings.ContainsAny(f, ".'[] \t\r\n")
}

// parseFrag parses a fragment of a kinded path into parent. The first
// segment of a path has no leading dot.
func parseFrag(frag string, parent *KPath, first bool) error {
	if len(frag) == 0 {
		return nil
	}
	switch frag[0] {
	case '.':
		if first {
			return fmt.Errorf("unexpected leading '.'")
		}
		return parseFieldFrag(frag[1:], parent)
	case '[':
		i := strings.IndexByte(frag[1:], ']')
		if i == -1 {
			return fmt.Errorf("expected '[' <index> ']'")
		}
		index, err := parseIndex(frag[1 : i+1])
		if err != nil {
			return err
		}
		parent.Index = &index
		if len(frag) == i+2 {
			return nil
		}
		next := &KPath{}
		if err := parseFrag(frag[i+2:], next, false); err != nil {
			return err
		}
		parent.Next = next
		return nil
	default:
		if first {
			return parseFieldFrag(frag, parent)
		}
		return fmt.Errorf("expected '.' or '['")
	}
}

func parseFieldFrag(frag string, parent *KPath) error {
	field, rest, err := parseField(frag)
	if err != nil {
		return err
	}
	parent.Field = &field
	if len(rest) == 0 {
		return nil
	}
	next := &KPath{}
	if err := parseFrag(rest, next, false); err != nil {
		return err
	}
	parent.Next = next
	return nil
}

func parseIndex(is string) (int, error) {
	u64, err := strconv.ParseUint(is, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %v", is, err)
	}
	return int(u64), nil
}

// parseField parses an object field name, stopping at '.' or '['. Quoted
// fields may contain any character, with "\'" escaping the quote.
func parseField(frag string) (field, rest string, err error) {
	if len(frag) == 0 {
		return "", "", fmt.Errorf("expected field at end of string")
	}
	if frag[0] != '\'' {
		i := strings.IndexAny(frag, ".[")
		if i == -1 {
			return frag, "", nil
		}
		return frag[:i], frag[i:], nil
	}
	escaped := false
	res := make([]byte, 0, len(frag))
	for i := 1; i < len(frag); i++ {
		c := frag[i]
		switch c {
		case '\\':
			escaped = true
		case '\'':
			if !escaped {
				return string(res), frag[i+1:], nil
			}
			fallthrough
		default:
			escaped = false
			res = append(res, c)
		}
	}
	return "", "", fmt.Errorf("end of string scanning for \"'\"")
}
