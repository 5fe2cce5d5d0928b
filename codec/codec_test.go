package codec

import "testing"

type sample struct {
	Name  string `json:"name" msgpack:"name" yaml:"name"`
	Count int    `json:"count" msgpack:"count" yaml:"count"`
}

func TestTombstone(t *testing.T) {
	if !Tombstone.IsTombstone() {
		t.Fatal("Tombstone must detect itself")
	}
	if Value(`"!delete"`).IsTombstone() {
		t.Fatal("an encoded string must not look like a tombstone")
	}
	if Value(nil).IsTombstone() {
		t.Fatal("nil value must not look like a tombstone")
	}
}

func TestJSON(t *testing.T) {
	c := JSON{}
	v, err := c.Marshal(7)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "7" {
		t.Fatalf("got %q", v)
	}
	var back int
	if err := c.Unmarshal(v, &back); err != nil {
		t.Fatal(err)
	}
	if back != 7 {
		t.Fatalf("got %d", back)
	}
}

func TestRoundTrips(t *testing.T) {
	in := sample{Name: "x", Count: 3}
	for _, c := range []Codec{JSON{}, Msgpack{}, YAML{}} {
		v, err := c.Marshal(in)
		if err != nil {
			t.Errorf("%s: %v", c.Name(), err)
			continue
		}
		out := sample{}
		if err := c.Unmarshal(v, &out); err != nil {
			t.Errorf("%s: %v", c.Name(), err)
			continue
		}
		if out != in {
			t.Errorf("%s: got %+v", c.Name(), out)
		}
	}
}

func TestByName(t *testing.T) {
	for _, c := range []Codec{JSON{}, Msgpack{}, YAML{}} {
		if got := ByName(c.Name()); got == nil || got.Name() != c.Name() {
			t.Errorf("ByName(%q) = %v", c.Name(), got)
		}
	}
	if ByName("nope") != nil {
		t.Error("ByName must return nil for unknown codecs")
	}
}

func TestClone(t *testing.T) {
	v := Value("abc")
	c := v.Clone()
	c[0] = 'x'
	if v.String() != "abc" {
		t.Fatalf("clone aliases original: %q", v)
	}
}
