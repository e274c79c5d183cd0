package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ubirch/go-certify/core/failure"
)

// ParseJSON builds a Value from JSON text. Object keys keep their document
// order; a repeated key keeps its first position and takes the last value.
// Numbers written without a fraction or exponent become integers when they
// fit in an int64 or a uint64.
func ParseJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Null, failure.Input("invalid JSON input")
	}
	return fromResult(gjson.ParseBytes(data))
}

func fromResult(r gjson.Result) (Value, error) {
	switch {
	case r.IsObject():
		m := NewMap()
		var err error
		r.ForEach(func(k, v gjson.Result) bool {
			var val Value
			val, err = fromResult(v)
			if err != nil {
				return false
			}
			m.Set(k.String(), val)
			return true
		})
		if err != nil {
			return Null, err
		}
		return MapValue(m), nil
	case r.IsArray():
		items := []Value{}
		var err error
		r.ForEach(func(_, v gjson.Result) bool {
			var val Value
			val, err = fromResult(v)
			if err != nil {
				return false
			}
			items = append(items, val)
			return true
		})
		if err != nil {
			return Null, err
		}
		return Sequence(items...), nil
	}

	switch r.Type {
	case gjson.Null:
		return Null, nil
	case gjson.True:
		return Bool(true), nil
	case gjson.False:
		return Bool(false), nil
	case gjson.String:
		return String(r.String()), nil
	case gjson.Number:
		return parseNumber(r.Raw)
	default:
		return Null, failure.Input("unsupported JSON value %q", r.Raw)
	}
}

func parseNumber(raw string) (Value, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(i), nil
		}
		if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return NumberValue(Uint(u)), nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Null, failure.Input("invalid JSON number %q", raw)
	}
	return FloatValue(f), nil
}

// MarshalJSON renders the value as JSON, keeping map key order. Floats with
// an integral value keep a trailing ".0" so they parse back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if !v.n.float {
			buf.WriteString(v.n.String())
			return nil
		}
		if math.IsNaN(v.n.f) || math.IsInf(v.n.f, 0) {
			return fmt.Errorf("unsupported float value: %v", v.n.f)
		}
		s := strconv.FormatFloat(v.n.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		return writeString(buf, v.s)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, e := range v.m.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, e.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind: %s", v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
