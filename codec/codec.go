package codec

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
	goyaml "github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Value is an encoded payload stored in a patch entry. The engine treats it
// as opaque except for the tombstone marker.
type Value []byte

// tombstone marks "remove this path". The marker is not a valid encoding in
// any of the supplied codecs, so it cannot collide with a real value.
const tombstone = "!delete"

// Tombstone is the value stored for a path that should be removed from the
// target when the patch is applied.
var Tombstone = Value(tombstone)

// IsTombstone reports whether v is the removal marker.
func (v Value) IsTombstone() bool {
	return bytes.Equal(v, Tombstone)
}

func (v Value) String() string {
	return string(v)
}

// Clone returns an independent copy of v.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	res := make(Value, len(v))
	copy(res, v)
	return res
}

// Codec encodes and decodes values into patch-storable payloads. A patch is
// bound to one codec; the host picks the storage format without changing the
// diff/merge algorithm.
type Codec interface {
	// Name identifies the codec in diagnostics and serialized patches.
	Name() string
	// Marshal encodes the given value.
	Marshal(v any) (Value, error)
	// Unmarshal decodes data into the provided pointer.
	Unmarshal(data Value, v any) error
}

// Default is JSON.
var Default Codec = JSON{}

// ByName returns the codec registered under name, or nil.
func ByName(name string) Codec {
	switch name {
	case JSON{}.Name():
		return JSON{}
	case Msgpack{}.Name():
		return Msgpack{}
	case YAML{}.Name():
		return YAML{}
	}
	return nil
}

// JSON encodes values as compact JSON.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) (Value, error) {
	d, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Value(d), nil
}

func (JSON) Unmarshal(data Value, v any) error {
	return gojson.Unmarshal(data, v)
}

// Msgpack encodes values as MessagePack.
type Msgpack struct{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(v any) (Value, error) {
	d, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Value(d), nil
}

func (Msgpack) Unmarshal(data Value, v any) error {
	return msgpack.Unmarshal(data, v)
}

// YAML encodes values as single-document YAML.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Marshal(v any) (Value, error) {
	d, err := goyaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Value(bytes.TrimRight(d, "\n")), nil
}

func (YAML) Unmarshal(data Value, v any) error {
	return goyaml.Unmarshal(data, v)
}

// MustMarshal is Marshal for values known to encode, such as test fixtures.
func MustMarshal(c Codec, v any) Value {
	d, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T with %s: %v", v, c.Name(), err))
	}
	return d
}
