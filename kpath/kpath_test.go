package kpath

import "testing"

func TestParseRoundTrip(t *testing.T) {
	paths := []string{
		"a",
		"a.b",
		"a.b.c",
		"a[0]",
		"a[0].b",
		"[1]",
		"[1][2]",
		"a.'odd key'.c",
		"a.2",
		"'$'",
	}
	for _, p := range paths {
		kp, err := Parse(p)
		if err != nil {
			t.Errorf("parse %q: %v", p, err)
			continue
		}
		if got := kp.String(); got != p {
			t.Errorf("round trip %q: got %q", p, got)
		}
	}
}

func TestParseRoot(t *testing.T) {
	for _, p := range []string{"", Self} {
		kp, err := Parse(p)
		if err != nil {
			t.Fatalf("parse %q: %v", p, err)
		}
		if kp != nil {
			t.Errorf("parse %q: expected root, got %q", p, kp.String())
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, p := range []string{".a", "a.", "a[", "a[x]", "a.'unterminated"} {
		if _, err := Parse(p); err == nil {
			t.Errorf("parse %q: expected error", p)
		}
	}
}

func TestQuotedField(t *testing.T) {
	kp, err := Parse("a.'odd key'")
	if err != nil {
		t.Fatal(err)
	}
	if kp.Next == nil || kp.Next.Field == nil || *kp.Next.Field != "odd key" {
		t.Fatalf("expected field \"odd key\", got %#v", kp.Next)
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		prefix, suffix, want string
	}{
		{"a", "b.c", "a.b.c"},
		{"a", "[0]", "a[0]"},
		{"[0]", "b", "[0].b"},
		{"a", Self, "a"},
		{"a", "", "a"},
		{"", "b", "b"},
		{Self, "b", "b"},
	}
	for _, tt := range tests {
		if got := Join(tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.prefix, tt.suffix, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path, first, rest string
	}{
		{"a.b.c", "a", "b.c"},
		{"[0].b", "[0]", "b"},
		{"a[0]", "a", "[0]"},
		{"a", "a", ""},
		{Self, Self, ""},
	}
	for _, tt := range tests {
		first, rest, err := Split(tt.path)
		if err != nil {
			t.Errorf("Split(%q): %v", tt.path, err)
			continue
		}
		if first != tt.first || rest != tt.rest {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.path, first, rest, tt.first, tt.rest)
		}
	}
}

func TestSegmentField(t *testing.T) {
	tests := []struct {
		seg   string
		field string
		ok    bool
	}{
		{"a", "a", true},
		{"'odd key'", "odd key", true},
		{"[0]", "", false},
		{Self, "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		field, ok := SegmentField(tt.seg)
		if field != tt.field || ok != tt.ok {
			t.Errorf("SegmentField(%q) = (%q, %v), want (%q, %v)", tt.seg, field, ok, tt.field, tt.ok)
		}
	}
}

func TestFieldSegment(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"a", "a"},
		{"odd key", "'odd key'"},
		{"a.b", "'a.b'"},
		{"$", "'$'"},
		{"2", "2"},
	}
	for _, tt := range tests {
		if got := FieldSegment(tt.name); got != tt.want {
			t.Errorf("FieldSegment(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIndexSegment(t *testing.T) {
	if got := IndexSegment(13); got != "[13]" {
		t.Errorf("IndexSegment(13) = %q", got)
	}
}

func TestMarshalText(t *testing.T) {
	kp, err := Parse("a.b[1]")
	if err != nil {
		t.Fatal(err)
	}
	d, err := kp.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	back := &KPath{}
	if err := back.UnmarshalText(d); err != nil {
		t.Fatal(err)
	}
	if back.String() != "a.b[1]" {
		t.Errorf("got %q", back.String())
	}
}
