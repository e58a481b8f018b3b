package livespace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"go.uber.org/multierr"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single request parameter. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	m    *Params
	l    []Value
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Null() Value {
	return Value{}
}

func List(vs ...Value) Value {
	return Value{kind: KindList, l: append([]Value(nil), vs...)}
}

func Map(p Params) Value {
	c := p.Clone()
	return Value{kind: KindMap, m: &c}
}

func (v Value) Kind() Kind {
	return v.kind
}

// Text returns the string held by a KindString value.
func (v Value) Text() string {
	return v.s
}

func (v Value) Int64() int64 {
	return v.i
}

func (v Value) Float64() float64 {
	return v.f
}

func (v Value) Truth() bool {
	return v.b
}

func (v Value) Items() []Value {
	return append([]Value(nil), v.l...)
}

// Params returns the nested mapping of a KindMap value.
func (v Value) Params() Params {
	if v.m == nil {
		return Params{}
	}
	return *v.m
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		raw, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("unsupported float value %v", v.f)
		}
		raw, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindMap:
		return v.Params().encode(buf)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.l {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

// ValueOf converts a loosely typed Go value into a Value. Unsigned integers
// above math.MaxInt64 are rejected; uintptr is not a parameter type.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case Params:
		return Map(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint:
		return uintValue(uint64(t))
	case uint64:
		return uintValue(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t.String())
		}
		return Float(f), nil
	case map[string]any:
		p, err := ParamsFrom(t)
		if err != nil {
			return Value{}, err
		}
		return Map(p), nil
	case map[string]string:
		var p Params
		for _, k := range sortedKeys(t) {
			p.Set(k, String(t[k]))
		}
		return Map(p), nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, String(s))
		}
		return List(items...), nil
	case []any:
		items := make([]Value, 0, len(t))
		var errs error
		for i, raw := range t {
			item, err := ValueOf(raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("[%d]: %w", i, err))
				continue
			}
			items = append(items, item)
		}
		if errs != nil {
			return Value{}, errs
		}
		return List(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported parameter type %s", reflect.TypeOf(x))
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("integer %d overflows int64", u)
	}
	return Int(int64(u)), nil
}

// Params is an insertion ordered mapping of parameter names to values. The
// zero Params is empty and ready to use.
type Params struct {
	keys   []string
	values map[string]Value
}

// NewParams returns an empty mapping.
func NewParams() Params {
	return Params{}
}

// ParamsFrom converts a plain map. Keys are inserted in sorted order so the
// encoded body is deterministic; every unsupported value is reported.
func ParamsFrom(m map[string]any) (Params, error) {
	var (
		p    Params
		errs error
	)
	for _, k := range sortedKeys(m) {
		v, err := ValueOf(m[k])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("param %q: %w", k, err))
			continue
		}
		p.Set(k, v)
	}
	if errs != nil {
		return Params{}, errs
	}
	return p, nil
}

// Set stores v under key. An existing key keeps its position.
func (p *Params) Set(key string, v Value) *Params {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
	return p
}

func (p Params) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Params) Len() int {
	return len(p.keys)
}

func (p Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p Params) Clone() Params {
	out := Params{
		keys:   append([]string(nil), p.keys...),
		values: make(map[string]Value, len(p.values)),
	}
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}

// Merge returns a copy of p overlaid with other; keys present in both take
// the value from other.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for _, k := range other.keys {
		out.Set(k, other.values[k])
	}
	return out
}

func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p Params) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := p.values[k].encode(buf); err != nil {
			return fmt.Errorf("param %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
