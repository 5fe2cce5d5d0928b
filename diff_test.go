package structpatch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/structpatch/go-structpatch/codec"
)

type inner struct {
	X int
	Y string
}

type outer struct {
	In    inner
	N     int
	Names []string
	Attrs map[string]int
	Ptr   *inner
}

type tagged struct {
	A    int    `patch:"a"`
	B    string `patch:"b"`
	Skip int    `patch:"-"`
	priv int
}

func TestDiffReflexive(t *testing.T) {
	vals := []any{
		7,
		"abc",
		inner{X: 1, Y: "y"},
		outer{
			In:    inner{X: 1},
			Names: []string{"a", "b"},
			Attrs: map[string]int{"k": 1},
			Ptr:   &inner{X: 2},
		},
		[]int{1, 2, 3},
		map[string]string{"a": "b"},
	}
	for _, v := range vals {
		p, err := Diff(v, v)
		if err != nil {
			t.Errorf("%T: %v", v, err)
			continue
		}
		if !p.IsEmpty() {
			t.Errorf("%T: expected empty patch, got %s", v, p)
		}
	}
}

func TestDiffLeaf(t *testing.T) {
	p, err := Diff(5, 7)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"$": "7"}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if p.Type() != "int" {
		t.Fatalf("Type() = %q", p.Type())
	}
}

func TestDiffStruct(t *testing.T) {
	a := inner{X: 1, Y: "a"}
	b := inner{X: 1, Y: "b"}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"Y": `"b"`}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffStructTags(t *testing.T) {
	a := tagged{A: 1, B: "x", Skip: 1, priv: 1}
	b := tagged{A: 1, B: "y", Skip: 2, priv: 2}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"b": `"y"`}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffNested(t *testing.T) {
	a := outer{In: inner{X: 1, Y: "a"}, N: 1}
	b := outer{In: inner{X: 2, Y: "a"}, N: 3}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"In.X": "2",
		"N":    "3",
	}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffSlices(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want map[string]string
	}{
		{"change", []int{1, 2, 3}, []int{1, 5, 3}, map[string]string{"[1]": "5"}},
		{"grow", []int{1}, []int{1, 2, 3}, map[string]string{"[1]": "2", "[2]": "3"}},
		{"shrink", []int{1, 2, 3}, []int{1}, map[string]string{
			"[1]": codec.Tombstone.String(),
			"[2]": codec.Tombstone.String(),
		}},
	}
	for _, tt := range tests {
		p, err := Diff(tt.a, tt.b)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got := entryStrings(p); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDiffMaps(t *testing.T) {
	a := map[string]int{"a": 1, "b": 2}
	b := map[string]int{"a": 2, "c": 3}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"a": "2",
		"b": codec.Tombstone.String(),
		"c": "3",
	}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffMapSingleEntry(t *testing.T) {
	a := map[string]any{"a": 1, "b": "x"}
	b := map[string]any{"a": 1, "b": "y"}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"b": `"y"`}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffMapIntKeys(t *testing.T) {
	a := map[int]string{1: "a"}
	b := map[int]string{1: "a", 2: "b"}
	p, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"2": `"b"`}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffPointers(t *testing.T) {
	one, two := 1, 2
	tests := []struct {
		name string
		a, b *int
		want map[string]string
	}{
		{"both nil", nil, nil, map[string]string{}},
		{"cleared", &one, nil, map[string]string{"$": codec.Tombstone.String()}},
		{"set", nil, &two, map[string]string{"$": "2"}},
		{"changed", &one, &two, map[string]string{"$": "2"}},
	}
	for _, tt := range tests {
		p, err := Diff(tt.a, tt.b)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got := entryStrings(p); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDiffValidatorRejects(t *testing.T) {
	a := inner{X: 1, Y: "a"}
	b := inner{X: 1, Y: "b"}
	if _, err := Diff(a, b, WithValidator(Fields("X"))); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	p, err := Diff(a, b, WithValidator(Fields("X", "Y")))
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 {
		t.Fatalf("got %s", p)
	}
}

func TestDiffTypeMismatch(t *testing.T) {
	if _, err := Diff(1, "x"); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	if _, err := Diff(nil, 1); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
}

type semverish struct {
	Major, Minor int
}

func (s semverish) DiffValue(other any) (*Patch, error) {
	o := other.(semverish)
	p := New("semverish")
	if s == o {
		return p, nil
	}
	return p.Add("Minor", codec.MustMarshal(codec.Default, o.Minor))
}

func TestDiffCustom(t *testing.T) {
	p, err := Diff(semverish{1, 2}, semverish{1, 5})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"Minor": "5"}
	if got := entryStrings(p); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDiffMsgpackCodec(t *testing.T) {
	p, err := Diff(inner{Y: "a"}, inner{Y: "b"}, WithCodec(codec.Msgpack{}))
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 {
		t.Fatalf("got %s", p)
	}
	v, _ := p.Get("Y")
	var s string
	if err := (codec.Msgpack{}).Unmarshal(v, &s); err != nil {
		t.Fatal(err)
	}
	if s != "b" {
		t.Fatalf("got %q", s)
	}
}
