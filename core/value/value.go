// Package value is the structured data model certificates carry: maps,
// sequences and scalars, with map keys kept in insertion order.
package value

import (
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Number is an integer or a floating point value. Integers above
// math.MaxInt64 are held in an unsigned form. Integers and floats never
// compare equal to each other, since they encode differently.
type Number struct {
	float    bool
	unsigned bool
	i        int64
	u        uint64
	f        float64
}

func Int(i int64) Number {
	return Number{i: i}
}

// Uint returns an integer Number for u. Values that fit in an int64 are
// stored in the signed form.
func Uint(u uint64) Number {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Number{unsigned: true, u: u}
}

func Float(f float64) Number {
	return Number{float: true, f: f}
}

func (n Number) IsFloat() bool {
	return n.float
}

// Int64 returns the integer form. ok is false for floats and for integers
// above math.MaxInt64.
func (n Number) Int64() (int64, bool) {
	return n.i, !n.float && !n.unsigned
}

// Uint64 returns non-negative integers. ok is false for floats and negative
// integers.
func (n Number) Uint64() (uint64, bool) {
	switch {
	case n.float:
		return 0, false
	case n.unsigned:
		return n.u, true
	default:
		return uint64(n.i), n.i >= 0
	}
}

// Float64 returns the number as a float, converting integers.
func (n Number) Float64() float64 {
	switch {
	case n.float:
		return n.f
	case n.unsigned:
		return float64(n.u)
	default:
		return float64(n.i)
	}
}

func (n Number) String() string {
	switch {
	case n.float:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	case n.unsigned:
		return strconv.FormatUint(n.u, 10)
	default:
		return strconv.FormatInt(n.i, 10)
	}
}

func (n Number) equal(o Number) bool {
	if n.float != o.float || n.unsigned != o.unsigned {
		return false
	}
	switch {
	case n.float:
		return n.f == o.f || (math.IsNaN(n.f) && math.IsNaN(o.f))
	case n.unsigned:
		return n.u == o.u
	default:
		return n.i == o.i
	}
}

// Value is one of Map, Sequence, String, Number, Boolean or Null. The zero
// Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    Number
	s    string
	seq  []Value
	m    *Map
}

var Null = Value{}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func NumberValue(n Number) Value {
	return Value{kind: KindNumber, n: n}
}

func IntValue(i int64) Value {
	return NumberValue(Int(i))
}

func FloatValue(f float64) Value {
	return NumberValue(Float(f))
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, seq: items}
}

func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (Number, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

func (v Value) AsMap() (*Map, bool) {
	return v.m, v.kind == KindMap
}

// Equal reports whether two values are structurally identical, including map
// key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n.equal(o.n)
	case KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.kind)
	}
	return string(b)
}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Map is an ordered collection of uniquely keyed values. Iteration follows
// insertion order.
type Map struct {
	entries []Entry
	index   map[string]int
}

func NewMap(entries ...Entry) *Map {
	m := &Map{index: map[string]int{}}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set adds key to the end of the map, or replaces its value in place if the
// key is already present.
func (m *Map) Set(key string, val Value) {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = val
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{key, val})
}

func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null, false
	}
	i, ok := m.index[key]
	if !ok {
		return Null, false
	}
	return m.entries[i].Value, true
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns the pairs in insertion order. The returned slice must not
// be modified.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	oe := o.Entries()
	for i, e := range m.Entries() {
		if e.Key != oe[i].Key || !e.Value.Equal(oe[i].Value) {
			return false
		}
	}
	return true
}
