// Package canonical implements the deterministic binary encoding of
// structured values used both for hashing and for embedding payloads in
// certificates.
//
// The encoding is MessagePack. Map keys are written in insertion order, never
// sorted: two maps holding the same pairs in a different order produce
// different bytes and therefore different digests. Integers use the smallest
// MessagePack representation (non-negative values use the uint family),
// floats are always float64 and strings use the str family.
package canonical

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/ubirch/go-certify/core/failure"
	"github.com/ubirch/go-certify/core/value"
)

// maxDepth bounds nesting when decoding untrusted bytes.
const maxDepth = 512

// Encode serializes a map-rooted value.
func Encode(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindMap {
		return nil, failure.Input("invalid input: not a map, is %s", v.Kind())
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encode(enc, v); err != nil {
		return nil, failure.Encoding(err, "encoding payload")
	}
	return buf.Bytes(), nil
}

func encode(enc *msgpack.Encoder, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		return enc.EncodeNil()
	case value.KindBool:
		b, _ := v.AsBool()
		return enc.EncodeBool(b)
	case value.KindNumber:
		n, _ := v.AsNumber()
		if i, ok := n.Int64(); ok {
			return enc.EncodeInt(i)
		}
		if u, ok := n.Uint64(); ok {
			return enc.EncodeUint(u)
		}
		return enc.EncodeFloat64(n.Float64())
	case value.KindString:
		s, _ := v.AsString()
		return enc.EncodeString(s)
	case value.KindSequence:
		items, _ := v.AsSequence()
		if err := enc.EncodeArrayLen(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := encode(enc, item); err != nil {
				return err
			}
		}
		return nil
	case value.KindMap:
		m, _ := v.AsMap()
		if err := enc.EncodeMapLen(m.Len()); err != nil {
			return err
		}
		for _, e := range m.Entries() {
			if err := enc.EncodeString(e.Key); err != nil {
				return err
			}
			if err := encode(enc, e.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown value kind: %s", v.Kind())
	}
}

// Decode is the inverse of Encode. The bytes must hold exactly one
// map-rooted value.
func Decode(b []byte) (value.Value, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)

	c, err := dec.PeekCode()
	if err != nil {
		return value.Null, failure.Encoding(err, "decoding payload")
	}
	if !isMap(c) {
		return value.Null, failure.Encoding(nil, "decoding payload: root is not a map (code 0x%02x)", c)
	}
	v, err := decode(dec, 0)
	if err != nil {
		return value.Null, failure.Encoding(err, "decoding payload")
	}
	if r.Len() > 0 {
		return value.Null, failure.Encoding(nil, "decoding payload: %d trailing bytes", r.Len())
	}
	return v, nil
}

func decode(dec *msgpack.Decoder, depth int) (value.Value, error) {
	if depth > maxDepth {
		return value.Null, fmt.Errorf("nesting deeper than %d", maxDepth)
	}
	c, err := dec.PeekCode()
	if err != nil {
		return value.Null, err
	}

	switch {
	case c == msgpcode.Nil:
		return value.Null, dec.DecodeNil()
	case c == msgpcode.True || c == msgpcode.False:
		b, err := dec.DecodeBool()
		return value.Bool(b), err
	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		return value.FloatValue(f), err
	case isUint(c):
		u, err := dec.DecodeUint64()
		return value.NumberValue(value.Uint(u)), err
	case msgpcode.IsFixedNum(c) || isInt(c):
		i, err := dec.DecodeInt64()
		return value.IntValue(i), err
	case msgpcode.IsString(c):
		s, err := dec.DecodeString()
		return value.String(s), err
	case isArray(c):
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return value.Null, err
		}
		items := make([]value.Value, 0, min(n, 1024))
		for i := 0; i < n; i++ {
			item, err := decode(dec, depth+1)
			if err != nil {
				return value.Null, err
			}
			items = append(items, item)
		}
		return value.Sequence(items...), nil
	case isMap(c):
		n, err := dec.DecodeMapLen()
		if err != nil {
			return value.Null, err
		}
		m := value.NewMap()
		for i := 0; i < n; i++ {
			kc, err := dec.PeekCode()
			if err != nil {
				return value.Null, fmt.Errorf("decoding map key: %w", err)
			}
			if !msgpcode.IsString(kc) {
				return value.Null, fmt.Errorf("map key is not a string (code 0x%02x)", kc)
			}
			key, err := dec.DecodeString()
			if err != nil {
				return value.Null, fmt.Errorf("decoding map key: %w", err)
			}
			if _, dup := m.Get(key); dup {
				return value.Null, fmt.Errorf("duplicate map key %q", key)
			}
			val, err := decode(dec, depth+1)
			if err != nil {
				return value.Null, err
			}
			m.Set(key, val)
		}
		return value.MapValue(m), nil
	default:
		return value.Null, fmt.Errorf("unsupported msgpack type (code 0x%02x)", c)
	}
}

func isUint(c byte) bool {
	return c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64
}

func isInt(c byte) bool {
	return c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64
}

func isArray(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}

func isMap(c byte) bool {
	return msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32
}
