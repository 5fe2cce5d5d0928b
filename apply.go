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

// Applier is implemented by types that consume patches themselves, taking
// the place of the generic reflection walker for that type.
type Applier interface {
	ApplyPatch(p *Patch) error
}

// Apply mutates target, which must be a non-nil pointer, according to each
// entry of the patch. Value entries are applied first in sorted path order,
// then removals: tombstoned map keys are deleted, tombstoned slice indices
// are compacted per slice in descending order, tombstoned struct and array
// fields are zeroed.
//
// Applying an empty patch is a no-op. Entries that address no field or
// index of the target fail with ErrUnknownPath; values that do not decode
// into the addressed type fail with ErrDecode. Callers wanting
// all-or-nothing semantics apply to a working copy and swap it in, the way
// History does.
func Apply(target any, p *Patch, opts ...Option) error {
	if p == nil || p.IsEmpty() {
		return nil
	}
	if debug.Apply() {
		debug.Logf("applying patch:\n%s\n", p.String())
	}
	if ap, ok := target.(Applier); ok {
		return ap.ApplyPatch(p)
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("apply: target must be a non-nil pointer, got %T", target)
	}
	a := &applier{c: New(p.patchType, append([]Option{WithCodec(p.c)}, opts...)...).c}
	root := rv.Elem()

	sliceDels := map[string][]int{}
	for _, key := range p.Paths() {
		v, _ := p.Get(key)
		if v.IsTombstone() {
			continue
		}
		if err := a.set(root, key, v); err != nil {
			return err
		}
	}
	for _, key := range p.Paths() {
		v, _ := p.Get(key)
		if !v.IsTombstone() {
			continue
		}
		if kpath.IsSelf(key) {
			root.Set(reflect.Zero(root.Type()))
			continue
		}
		parent, last, err := splitLast(key)
		if err != nil {
			return err
		}
		if last.Index != nil && !sliceParentIsArray(root, parent) {
			pp := parent.String()
			sliceDels[pp] = append(sliceDels[pp], *last.Index)
			continue
		}
		if err := a.walk(root, parent, func(pv reflect.Value) error {
			return a.removeAt(pv, last, key)
		}); err != nil {
			return err
		}
	}
	parents := make([]string, 0, len(sliceDels))
	for pp := range sliceDels {
		parents = append(parents, pp)
	}
	sort.Strings(parents)
	for _, pp := range parents {
		if err := a.removeIndices(root, pp, sliceDels[pp]); err != nil {
			return err
		}
	}
	return nil
}

type applier struct {
	c codec.Codec
}

// set inserts or overwrites the value addressed by key.
func (a *applier) set(root reflect.Value, key string, val codec.Value) error {
	if kpath.IsSelf(key) {
		return a.decodeInto(root, val, key)
	}
	parent, last, err := splitLast(key)
	if err != nil {
		return err
	}
	return a.walk(root, parent, func(pv reflect.Value) error {
		return a.setAt(pv, last, val, key)
	})
}

// walk navigates v along kp and invokes act on the addressed value.
// Pointers are allocated when nil, interface and map elements are
// materialized as addressable copies and written back after act.
func (a *applier) walk(v reflect.Value, kp *kpath.KPath, act func(reflect.Value) error) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return fmt.Errorf("%w: cannot navigate nil interface", ErrUnknownPath)
		}
		tmp := reflect.New(v.Elem().Type())
		tmp.Elem().Set(v.Elem())
		if err := a.walk(tmp.Elem(), kp, act); err != nil {
			return err
		}
		v.Set(tmp.Elem())
		return nil
	}
	if kp == nil {
		return act(v)
	}
	switch {
	case kp.Field != nil:
		field := *kp.Field
		switch v.Kind() {
		case reflect.Struct:
			fv, ok := structField(v, field)
			if !ok {
				return fmt.Errorf("%w: no field %q in %s", ErrUnknownPath, field, v.Type())
			}
			return a.walk(fv, kp.Next, act)
		case reflect.Map:
			mk, err := mapKeyValue(v.Type().Key(), field)
			if err != nil {
				return err
			}
			if v.IsNil() {
				return fmt.Errorf("%w: no key %q in nil %s", ErrUnknownPath, field, v.Type())
			}
			elem := v.MapIndex(mk)
			if !elem.IsValid() {
				return fmt.Errorf("%w: no key %q in %s", ErrUnknownPath, field, v.Type())
			}
			tmp := reflect.New(v.Type().Elem())
			tmp.Elem().Set(elem)
			if err := a.walk(tmp.Elem(), kp.Next, act); err != nil {
				return err
			}
			v.SetMapIndex(mk, tmp.Elem())
			return nil
		}
		return fmt.Errorf("%w: cannot address field %q in %s", ErrUnknownPath, field, v.Type())
	case kp.Index != nil:
		i := *kp.Index
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			if i < 0 || i >= v.Len() {
				return fmt.Errorf("%w: index %d out of range in %s (len %d)", ErrUnknownPath, i, v.Type(), v.Len())
			}
			return a.walk(v.Index(i), kp.Next, act)
		}
		return fmt.Errorf("%w: cannot index %s", ErrUnknownPath, v.Type())
	}
	return a.walk(v, kp.Next, act)
}

// setAt performs a leaf set: seg addresses a field, key, or index of
// parent. Map keys are inserted when absent, slices grow to admit an index
// one past their length or beyond.
func (a *applier) setAt(parent reflect.Value, seg *kpath.KPath, val codec.Value, key string) error {
	switch {
	case seg.Field != nil:
		field := *seg.Field
		switch parent.Kind() {
		case reflect.Struct:
			fv, ok := structField(parent, field)
			if !ok {
				return fmt.Errorf("%w: no field %q in %s", ErrUnknownPath, field, parent.Type())
			}
			return a.decodeInto(fv, val, key)
		case reflect.Map:
			mk, err := mapKeyValue(parent.Type().Key(), field)
			if err != nil {
				return err
			}
			if parent.IsNil() {
				parent.Set(reflect.MakeMap(parent.Type()))
			}
			tmp := reflect.New(parent.Type().Elem())
			if elem := parent.MapIndex(mk); elem.IsValid() {
				tmp.Elem().Set(elem)
			}
			if err := a.decodeInto(tmp.Elem(), val, key); err != nil {
				return err
			}
			parent.SetMapIndex(mk, tmp.Elem())
			return nil
		}
		return fmt.Errorf("%w: cannot address field %q in %s", ErrUnknownPath, field, parent.Type())
	case seg.Index != nil:
		i := *seg.Index
		switch parent.Kind() {
		case reflect.Slice:
			if i >= parent.Len() {
				grown := reflect.MakeSlice(parent.Type(), i+1, i+1)
				reflect.Copy(grown, parent)
				parent.Set(grown)
			}
			return a.decodeInto(parent.Index(i), val, key)
		case reflect.Array:
			if i < 0 || i >= parent.Len() {
				return fmt.Errorf("%w: index %d out of range in %s", ErrUnknownPath, i, parent.Type())
			}
			return a.decodeInto(parent.Index(i), val, key)
		}
		return fmt.Errorf("%w: cannot index %s", ErrUnknownPath, parent.Type())
	}
	return a.decodeInto(parent, val, key)
}

// removeAt handles tombstones other than slice compaction: map keys are
// deleted, struct fields and array elements zeroed.
func (a *applier) removeAt(parent reflect.Value, seg *kpath.KPath, key string) error {
	switch {
	case seg.Field != nil:
		field := *seg.Field
		switch parent.Kind() {
		case reflect.Struct:
			fv, ok := structField(parent, field)
			if !ok {
				return fmt.Errorf("%w: no field %q in %s", ErrUnknownPath, field, parent.Type())
			}
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		case reflect.Map:
			if parent.IsNil() {
				return nil
			}
			mk, err := mapKeyValue(parent.Type().Key(), field)
			if err != nil {
				return err
			}
			parent.SetMapIndex(mk, reflect.Value{})
			return nil
		}
		return fmt.Errorf("%w: cannot address field %q in %s", ErrUnknownPath, field, parent.Type())
	case seg.Index != nil:
		i := *seg.Index
		if parent.Kind() == reflect.Array {
			if i < 0 || i >= parent.Len() {
				return fmt.Errorf("%w: index %d out of range in %s", ErrUnknownPath, i, parent.Type())
			}
			parent.Index(i).Set(reflect.Zero(parent.Type().Elem()))
			return nil
		}
		return fmt.Errorf("%w: cannot remove index %d from %s", ErrUnknownPath, i, parent.Type())
	}
	return fmt.Errorf("%w: cannot remove at %q", ErrUnknownPath, key)
}

// removeIndices compacts one slice, dropping the given indices. Indices
// are removed in descending order so earlier removals do not shift later
// ones; indices past the current length are treated as already gone.
func (a *applier) removeIndices(root reflect.Value, parentPath string, idxs []int) error {
	pkp, err := kpath.Parse(parentPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownPath, err)
	}
	return a.walk(root, pkp, func(sv reflect.Value) error {
		if sv.Kind() != reflect.Slice {
			return fmt.Errorf("%w: cannot remove indices from %s", ErrUnknownPath, sv.Type())
		}
		sort.Ints(idxs)
		for i := len(idxs) - 1; i >= 0; i-- {
			idx := idxs[i]
			if i < len(idxs)-1 && idxs[i+1] == idx {
				continue
			}
			if idx < 0 || idx >= sv.Len() {
				continue
			}
			ns := reflect.AppendSlice(sv.Slice(0, idx), sv.Slice(idx+1, sv.Len()))
			sv.Set(ns)
		}
		return nil
	})
}

func (a *applier) decodeInto(fv reflect.Value, val codec.Value, key string) error {
	tmp := reflect.New(fv.Type())
	if err := a.c.Unmarshal(val, tmp.Interface()); err != nil {
		return fmt.Errorf("%w: value at %q into %s: %v", ErrDecode, key, fv.Type(), err)
	}
	fv.Set(tmp.Elem())
	return nil
}

// splitLast splits a path into the chain addressing the parent container
// and the final segment.
func splitLast(key string) (parent, last *kpath.KPath, err error) {
	kp, err := kpath.Parse(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownPath, err)
	}
	if kp == nil {
		return nil, nil, fmt.Errorf("%w: empty path", ErrUnknownPath)
	}
	if kp.Next == nil {
		return nil, kp, nil
	}
	head := &kpath.KPath{}
	cur := head
	x := kp
	for x.Next != nil {
		*cur = kpath.KPath{Field: x.Field, Index: x.Index}
		if x.Next.Next != nil {
			cur.Next = &kpath.KPath{}
			cur = cur.Next
		}
		x = x.Next
	}
	return head, x, nil
}

// sliceParentIsArray reports whether the container addressed by parent is
// an array, whose tombstoned elements are zeroed rather than compacted.
func sliceParentIsArray(root reflect.Value, parent *kpath.KPath) bool {
	t := root.Type()
	for {
		switch t.Kind() {
		case reflect.Pointer:
			t = t.Elem()
			continue
		}
		break
	}
	kp := parent
	for kp != nil {
		switch t.Kind() {
		case reflect.Pointer:
			t = t.Elem()
			continue
		case reflect.Interface:
			// dynamic type unknown statically; assume slice
			return false
		}
		switch {
		case kp.Field != nil:
			switch t.Kind() {
			case reflect.Struct:
				f, ok := structFieldType(t, *kp.Field)
				if !ok {
					return false
				}
				t = f
			case reflect.Map:
				t = t.Elem()
			default:
				return false
			}
		case kp.Index != nil:
			switch t.Kind() {
			case reflect.Slice, reflect.Array:
				t = t.Elem()
			default:
				return false
			}
		}
		kp = kp.Next
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Array
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fieldName, ok := fieldKey(t.Field(i))
		if !ok {
			continue
		}
		if fieldName == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func structFieldType(t reflect.Type, name string) (reflect.Type, bool) {
	for i := 0; i < t.NumField(); i++ {
		fieldName, ok := fieldKey(t.Field(i))
		if !ok {
			continue
		}
		if fieldName == name {
			return t.Field(i).Type, true
		}
	}
	return nil, false
}

func mapKeyValue(kt reflect.Type, field string) (reflect.Value, error) {
	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(field).Convert(kt), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: key %q is not an integer", ErrUnknownPath, field)
		}
		return reflect.ValueOf(i).Convert(kt), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: key %q is not an integer", ErrUnknownPath, field)
		}
		return reflect.ValueOf(u).Convert(kt), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: unsupported map key type %s", ErrConversion, kt)
}
