package structpatch

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/structpatch/go-structpatch/codec"
	"github.com/structpatch/go-structpatch/debug"
	"github.com/structpatch/go-structpatch/kpath"
)

// Differ is implemented by types that compute their own patches, taking
// the place of the generic reflection walker for that type.
type Differ interface {
	// DiffValue returns a patch transforming the receiver into other,
	// which is always of the receiver's type.
	DiffValue(other any) (*Patch, error)
}

// Diff compares two values of the same type and returns the patch needed
// to convert a into b. Equal values produce an empty patch; a changed leaf
// produces a single entry keyed by the whole-value sentinel; composites
// recurse field by field, element by element.
//
// Struct fields map to path segments by name, overridden by a `patch:"name"`
// tag; `patch:"-"` excludes a field. Numeric equality is exact.
func Diff(a, b any, opts ...Option) (*Patch, error) {
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return nil, fmt.Errorf("%w: cannot diff untyped nil", ErrConversion)
	}
	if va.Type() != vb.Type() {
		return nil, fmt.Errorf("%w: cannot diff %s against %s", ErrConversion, va.Type(), vb.Type())
	}
	name := va.Type().String()
	d := &differ{c: New(name, opts...).c}
	raw, err := d.diff(va, vb, name)
	if err != nil {
		return nil, err
	}
	// Rebind under the caller's validator; entries are re-admitted one by
	// one so a rejecting validator surfaces here, not during recursion.
	return New(name, opts...).Merge("", raw)
}

type differ struct {
	c codec.Codec
}

func (d *differ) diff(a, b reflect.Value, name string) (*Patch, error) {
	if debug.Diff() {
		debug.Logf("diff %s: %v against %v\n", name, a, b)
	}
	if p, ok, err := d.custom(a, b); ok {
		return p, err
	}
	switch a.Kind() {
	case reflect.Pointer, reflect.Interface:
		return d.diffRef(a, b, name)
	case reflect.Struct:
		return d.diffStruct(a, b, name)
	case reflect.Slice, reflect.Array:
		return d.diffSeq(a, b, name)
	case reflect.Map:
		return d.diffMap(a, b, name)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, fmt.Errorf("%w: cannot diff %s values", ErrConversion, a.Kind())
	default:
		return d.diffLeaf(a, b, name)
	}
}

func (d *differ) custom(a, b reflect.Value) (*Patch, bool, error) {
	if !a.CanInterface() {
		return nil, false, nil
	}
	if (a.Kind() == reflect.Pointer || a.Kind() == reflect.Interface) && a.IsNil() {
		return nil, false, nil
	}
	dv, ok := a.Interface().(Differ)
	if !ok {
		return nil, false, nil
	}
	p, err := dv.DiffValue(b.Interface())
	return p, true, err
}

// diffLeaf is the base case: equal values yield an empty patch, different
// values a single whole-value entry holding b encoded.
func (d *differ) diffLeaf(a, b reflect.Value, name string) (*Patch, error) {
	p := New(name, WithCodec(d.c))
	if a.Interface() == b.Interface() {
		return p, nil
	}
	enc, err := d.encode(b, name)
	if err != nil {
		return nil, err
	}
	return p.Add(kpath.Self, enc)
}

func (d *differ) diffRef(a, b reflect.Value, name string) (*Patch, error) {
	p := New(name, WithCodec(d.c))
	aNil, bNil := a.IsNil(), b.IsNil()
	switch {
	case aNil && bNil:
		return p, nil
	case !aNil && bNil:
		return p.Add(kpath.Self, codec.Tombstone)
	case aNil && !bNil:
		enc, err := d.encode(b, name)
		if err != nil {
			return nil, err
		}
		return p.Add(kpath.Self, enc)
	}
	if a.Kind() == reflect.Interface && a.Elem().Type() != b.Elem().Type() {
		// dynamic type changed, replace wholesale
		enc, err := d.encode(b, name)
		if err != nil {
			return nil, err
		}
		return p.Add(kpath.Self, enc)
	}
	return d.diff(a.Elem(), b.Elem(), name)
}

func (d *differ) diffStruct(a, b reflect.Value, name string) (*Patch, error) {
	p := New(name, WithCodec(d.c))
	t := a.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldName, ok := fieldKey(f)
		if !ok {
			continue
		}
		child, err := d.diff(a.Field(i), b.Field(i), name+"."+f.Name)
		if err != nil {
			return nil, err
		}
		if child.IsEmpty() {
			continue
		}
		if _, err := p.Merge(kpath.FieldSegment(fieldName), child); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *differ) diffSeq(a, b reflect.Value, name string) (*Patch, error) {
	p := New(name, WithCodec(d.c))
	n := min(a.Len(), b.Len())
	for i := 0; i < n; i++ {
		child, err := d.diff(a.Index(i), b.Index(i), name+kpath.IndexSegment(i))
		if err != nil {
			return nil, err
		}
		if child.IsEmpty() {
			continue
		}
		if _, err := p.Merge(kpath.IndexSegment(i), child); err != nil {
			return nil, err
		}
	}
	// elements only in b are whole-value additions
	for i := n; i < b.Len(); i++ {
		enc, err := d.encode(b.Index(i), name+kpath.IndexSegment(i))
		if err != nil {
			return nil, err
		}
		if _, err := p.Add(kpath.IndexSegment(i), enc); err != nil {
			return nil, err
		}
	}
	// elements only in a are removals
	for i := n; i < a.Len(); i++ {
		if _, err := p.Add(kpath.IndexSegment(i), codec.Tombstone); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (d *differ) diffMap(a, b reflect.Value, name string) (*Patch, error) {
	p := New(name, WithCodec(d.c))
	type elem struct {
		av, bv reflect.Value
	}
	elems := map[string]*elem{}
	for _, k := range a.MapKeys() {
		seg, err := mapKeySegment(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		elems[seg] = &elem{av: a.MapIndex(k)}
	}
	for _, k := range b.MapKeys() {
		seg, err := mapKeySegment(k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		e := elems[seg]
		if e == nil {
			e = &elem{}
			elems[seg] = e
		}
		e.bv = b.MapIndex(k)
	}
	segs := make([]string, 0, len(elems))
	for seg := range elems {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	for _, seg := range segs {
		e := elems[seg]
		switch {
		case !e.bv.IsValid():
			if _, err := p.Add(seg, codec.Tombstone); err != nil {
				return nil, err
			}
		case !e.av.IsValid():
			enc, err := d.encode(e.bv, name+"."+seg)
			if err != nil {
				return nil, err
			}
			if _, err := p.Add(seg, enc); err != nil {
				return nil, err
			}
		default:
			child, err := d.diff(e.av, e.bv, name+"."+seg)
			if err != nil {
				return nil, err
			}
			if child.IsEmpty() {
				continue
			}
			if _, err := p.Merge(seg, child); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (d *differ) encode(v reflect.Value, name string) (codec.Value, error) {
	enc, err := d.c.Marshal(v.Interface())
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", ErrConversion, name, err)
	}
	return enc, nil
}

func fieldKey(f reflect.StructField) (string, bool) {
	if f.PkgPath != "" {
		return "", false
	}
	tag := f.Tag.Get("patch")
	if tag == "-" {
		return "", false
	}
	if tag != "" {
		return tag, true
	}
	return f.Name, true
}

func mapKeySegment(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return kpath.FieldSegment(k.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kpath.FieldSegment(strconv.FormatInt(k.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kpath.FieldSegment(strconv.FormatUint(k.Uint(), 10)), nil
	}
	return "", fmt.Errorf("%w: unsupported map key type %s", ErrConversion, k.Type())
}
