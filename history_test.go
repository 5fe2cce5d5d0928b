package structpatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/structpatch/go-structpatch/codec"
)

func TestHistoryApplyPop(t *testing.T) {
	h := NewHistory(nil)
	v := outer{
		In:    inner{X: 1, Y: "a"},
		Names: []string{"a", "b"},
		Attrs: map[string]int{"k": 1},
	}
	orig := outer{
		In:    inner{X: 1, Y: "a"},
		Names: []string{"a", "b"},
		Attrs: map[string]int{"k": 1},
	}
	after := outer{
		In:    inner{X: 2, Y: "a"},
		Names: []string{"a"},
		Attrs: map[string]int{"k": 1, "g": 2},
	}
	p, err := Diff(orig, after)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Apply(&v, p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(after, v); diff != "" {
		t.Fatal(diff)
	}
	if h.Len() != 1 {
		t.Fatalf("Len() = %d", h.Len())
	}

	fwd, err := h.Pop(&v)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(orig, v); diff != "" {
		t.Fatal(diff)
	}
	if h.Len() != 0 {
		t.Fatalf("Len() = %d after pop", h.Len())
	}
	// the returned forward patch redoes the change
	if err := Apply(&v, fwd); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(after, v); diff != "" {
		t.Fatal(diff)
	}
}

func TestHistoryApplyFailureLeavesTarget(t *testing.T) {
	h := NewHistory(nil)
	v := inner{X: 1, Y: "a"}
	p := mustPairs(t, "inner", []Pair{
		{Path: "Y", Value: codec.Value(`"b"`)},
		{Path: "Nope", Value: codec.Value("1")},
	})
	if err := h.Apply(&v, p); err == nil {
		t.Fatal("expected error")
	}
	if v != (inner{X: 1, Y: "a"}) {
		t.Fatalf("target mutated on failed apply: %+v", v)
	}
	if h.Len() != 0 {
		t.Fatal("failed apply must not be recorded")
	}
}

func TestHistoryForeignCodecPatch(t *testing.T) {
	h := NewHistory(codec.Msgpack{})
	n := 5
	p, err := Diff(5, 7)
	if err != nil {
		t.Fatal(err)
	}
	if p.Codec().Name() != "json" {
		t.Fatalf("codec %q", p.Codec().Name())
	}
	if err := h.Apply(&n, p); err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("got %d", n)
	}
	if _, err := h.Pop(&n); err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("got %d after pop", n)
	}
}

func TestHistoryPopEmpty(t *testing.T) {
	h := NewHistory(nil)
	v := inner{}
	if _, err := h.Pop(&v); err == nil {
		t.Fatal("expected error on empty history")
	}
}

func TestHistoryMultipleEntries(t *testing.T) {
	h := NewHistory(codec.JSON{})
	v := inner{X: 1}
	for _, x := range []int{2, 3, 4} {
		next := v
		next.X = x
		p, err := Diff(v, next)
		if err != nil {
			t.Fatal(err)
		}
		if err := h.Apply(&v, p); err != nil {
			t.Fatal(err)
		}
	}
	if v.X != 4 || h.Len() != 3 {
		t.Fatalf("got %+v, len %d", v, h.Len())
	}
	if _, err := h.Pop(&v); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Pop(&v); err != nil {
		t.Fatal(err)
	}
	if v.X != 2 || h.Len() != 1 {
		t.Fatalf("got %+v, len %d", v, h.Len())
	}
	e := h.At(0)
	if e.Forward == nil || e.Inverse == nil || e.At.IsZero() {
		t.Fatalf("incomplete entry: %+v", e)
	}
}
