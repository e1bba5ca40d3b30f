// FILE: lixenwraith/bridge/native.go
package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ============================================================
// Go values to Value
// ============================================================

// FromNative converts a Go value to a Value.
//
// Supported: nil, Value, bool, integers, floats, string, []byte, time.Time,
// CalendarDate, json.Number, slices and arrays, maps with string keys (keys
// sorted), structs (exported fields in declaration order, named by the
// `bridge` tag) and pointers to any of these.
func FromNative(v any) (Value, error) {
	return fromNative(reflect.ValueOf(v), 0)
}

var (
	valueType    = reflect.TypeOf(Value{})
	timeType     = reflect.TypeOf(time.Time{})
	dateType     = reflect.TypeOf(CalendarDate{})
	jsonNumType  = reflect.TypeOf(json.Number(""))
	byteSliceTyp = reflect.TypeOf([]byte(nil))
)

func fromNative(rv reflect.Value, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Null(), ErrDepthExceeded
	}
	if !rv.IsValid() {
		return Null(), nil
	}

	switch rv.Type() {
	case valueType:
		return rv.Interface().(Value), nil
	case timeType:
		return Timestamp(rv.Interface().(time.Time)), nil
	case dateType:
		return Date(rv.Interface().(CalendarDate)), nil
	case jsonNumType:
		return numberFromJSON(rv.Interface().(json.Number))
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return fromNative(rv.Elem(), depth+1)

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Null(), fmt.Errorf("%w: unsigned %d overflows integer", ErrUnsupportedType, u)
		}
		return Int(int64(u)), nil

	case reflect.Float32:
		r, ok := realFromFloat(rv.Float(), 32)
		if !ok {
			return Null(), fmt.Errorf("%w: non-finite float", ErrUnsupportedType)
		}
		return r, nil

	case reflect.Float64:
		r, ok := realFromFloat(rv.Float(), 64)
		if !ok {
			return Null(), fmt.Errorf("%w: non-finite float", ErrUnsupportedType)
		}
		return r, nil

	case reflect.String:
		return Text(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().ConvertibleTo(byteSliceTyp) {
			if rv.IsNil() {
				return Null(), nil
			}
			return Bytes(rv.Convert(byteSliceTyp).Interface().([]byte)), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := fromNative(rv.Index(i), depth+1)
			if err != nil {
				return Null(), fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = item
		}
		return Value{kind: KindSequence, items: items}, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Null(), fmt.Errorf("%w: map key type %s", ErrUnsupportedType, rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			item, err := fromNative(rv.MapIndex(k), depth+1)
			if err != nil {
				return Null(), fmt.Errorf("%s: %w", k.String(), err)
			}
			entries[i] = Entry{Key: k.String(), Value: item}
		}
		return Value{kind: KindMapping, entries: entries}, nil

	case reflect.Struct:
		return structToMapping(rv, depth)

	default:
		return Null(), fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
}

// structToMapping keeps field declaration order; `bridge:"-"` skips a field
// and `bridge:",omitempty"` drops zero values.
func structToMapping(rv reflect.Value, depth int) (Value, error) {
	t := rv.Type()
	entries := make([]Entry, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("bridge")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		fv := rv.Field(i)
		if opts == "omitempty" && fv.IsZero() {
			continue
		}
		item, err := fromNative(fv, depth+1)
		if err != nil {
			return Null(), fmt.Errorf("%s: %w", name, err)
		}
		entries = append(entries, Entry{Key: name, Value: item})
	}
	return Mapping(entries...), nil
}

// numberFromJSON keeps integers exact and everything else as a Real
func numberFromJSON(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	return ParseReal(n.String())
}

// ============================================================
// Value to Go values
// ============================================================

// ToNative converts v to plain Go values: nil, bool, int64, float64,
// string, []byte, time.Time, []any and map[string]any. File and Alias
// become their path or reference text; Date becomes a time.Time (floating
// dates in time.Local); Data becomes its decoded bytes, or the hex text
// when malformed.
func ToNative(v Value) any {
	return Visit[any](v, nativeVisitor{})
}

type nativeVisitor struct{}

func (nativeVisitor) Null() any { return nil }
func (nativeVisitor) Bool(b bool) any { return b }
func (nativeVisitor) Int(i int64) any { return i }
func (nativeVisitor) Real(f float64, _ string) any { return f }
func (nativeVisitor) Text(s string) any { return s }
func (nativeVisitor) Bytes(b []byte) any { return cloneBytes(b) }
func (nativeVisitor) Timestamp(t time.Time) any { return t }
func (nativeVisitor) File(path string) any { return path }
func (nativeVisitor) Alias(ref string) any { return ref }
func (nativeVisitor) Number(f float64, _ int) any { return f }

func (n nativeVisitor) Sequence(items []Value) any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = Visit[any](item, n)
	}
	return out
}

func (n nativeVisitor) Mapping(entries []Entry) any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.Key] = Visit[any](e.Value, n)
	}
	return out
}

func (nativeVisitor) Date(d CalendarDate) any {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, loc)
}

func (nativeVisitor) Data(_ string, hex string) any {
	if b, err := decodeHex(hex); err == nil {
		return b
	}
	return hex
}
