// FILE: lixenwraith/bridge/value.go
package bridge

import (
	"bytes"
	"fmt"
	"math"
	"path"
	"strconv"
	"time"
)

// Kind identifies the case of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindText
	KindBytes
	KindTimestamp
	KindFile
	KindSequence
	KindMapping

	// Host-side forms: the shapes a script holds before inbound conversion
	// and after outbound conversion.
	KindDate
	KindAlias
	KindData
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindFile:
		return "file"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindDate:
		return "date"
	case KindAlias:
		return "alias"
	case KindData:
		return "data"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the kind holds child values.
func (k Kind) IsContainer() bool {
	return k == KindSequence || k == KindMapping
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// CalendarDate is a wall-clock date as a script holds it.
// A nil Location means a floating date, read in the converter's zone.
type CalendarDate struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	Location   *time.Location

	// Offset is seconds east of UTC, used only when HasOffset is set. It
	// picks one reading of a wall-clock time that Location repeats.
	Offset    int
	HasOffset bool
}

// Time returns the instant the date names. A floating date is read in loc.
// When the zone repeats the wall-clock time, a set Offset selects the
// reading; an Offset the zone never used at that time is ignored.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	if d.Location != nil {
		loc = d.Location
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, loc)
	if !d.HasOffset {
		return t
	}
	if _, off := t.Zone(); off == d.Offset {
		return t
	}
	alt := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.FixedZone("", d.Offset)).In(loc)
	if _, off := alt.Zone(); off == d.Offset && alt.Day() == d.Day && alt.Hour() == d.Hour && alt.Minute() == d.Minute {
		return alt
	}
	return t
}

// floating drops the zone and offset, keeping the wall clock.
func (d CalendarDate) floating() CalendarDate {
	d.Location = nil
	d.Offset, d.HasOffset = 0, false
	return d
}

// sameOffset reports whether two dates agree on their offsets. A date
// without one agrees with any offset.
func (d CalendarDate) sameOffset(o CalendarDate) bool {
	return !d.HasOffset || !o.HasOffset || d.Offset == o.Offset
}

// valid reports whether every field is inside its calendar range.
func (d CalendarDate) valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	if d.Day < 1 || d.Day > daysIn(d.Month, d.Year) {
		return false
	}
	return d.Hour >= 0 && d.Hour < 24 &&
		d.Minute >= 0 && d.Minute < 60 &&
		d.Second >= 0 && d.Second < 60 &&
		d.Nanosecond >= 0 && d.Nanosecond < 1e9
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// zoneName returns the location name, or "" for a floating date.
func (d CalendarDate) zoneName() string {
	if d.Location == nil {
		return ""
	}
	return d.Location.String()
}

// String formats the date as "YYYY-MM-DD hh:mm:ss[.nnnnnnnnn] [±hhmm] [zone]".
func (d CalendarDate) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, int(d.Month), d.Day, d.Hour, d.Minute, d.Second)
	if d.Nanosecond != 0 {
		s += fmt.Sprintf(".%09d", d.Nanosecond)
	}
	if d.HasOffset {
		s += " " + formatOffset(d.Offset, false)
	}
	if z := d.zoneName(); z != "" {
		s += " " + z
	}
	return s
}

// Value is an immutable node of a conversion graph.
// The zero Value is Null.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	numVal   float64 // Real and Number
	bits     int     // Number bridge width
	strVal   string  // Text, Real decimal, File path, Alias reference, Data hex
	code     string  // Data type code
	bytesVal []byte
	timeVal  time.Time
	dateVal  *CalendarDate

	items   []Value
	entries []Entry
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() Value {
	return Value{}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) Value {
	return Value{kind: KindInt, intVal: v}
}

// Real creates a real from a double, keeping its shortest decimal form.
// NaN and infinities have no decimal form and yield Null.
func Real(v float64) Value {
	r, ok := realFromFloat(v, 64)
	if !ok {
		return Null()
	}
	return r
}

// ParseReal creates a real from decimal text.
func ParseReal(s string) (Value, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), fmt.Errorf("bridge: invalid real %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null(), fmt.Errorf("bridge: real %q is not finite", s)
	}
	return Value{kind: KindReal, numVal: f, strVal: strconv.FormatFloat(f, 'g', -1, 64)}, nil
}

// Text creates a text value.
func Text(v string) Value {
	return Value{kind: KindText, strVal: v}
}

// Bytes creates a byte value. The slice is copied.
func Bytes(v []byte) Value {
	return Value{kind: KindBytes, bytesVal: cloneBytes(v)}
}

// Timestamp creates an absolute instant. Monotonic clock readings are dropped.
func Timestamp(v time.Time) Value {
	return Value{kind: KindTimestamp, timeVal: v.Round(0)}
}

// File creates a file reference to a canonical absolute POSIX path.
// A relative path names no location and yields Null.
func File(p string) Value {
	if !path.IsAbs(p) {
		return Null()
	}
	return Value{kind: KindFile, strVal: path.Clean(p)}
}

// Sequence creates an ordered list. The slice is copied.
func Sequence(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Mapping creates an ordered mapping. A repeated key replaces the earlier
// value but keeps the earlier position.
func Mapping(entries ...Entry) Value {
	cp := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, dup := index[e.Key]; dup {
			cp[i].Value = e.Value
			continue
		}
		index[e.Key] = len(cp)
		cp = append(cp, e)
	}
	return Value{kind: KindMapping, entries: cp}
}

// Field creates an Entry for use in Mapping construction.
func Field(key string, value Value) Entry {
	return Entry{Key: key, Value: value}
}

// Date creates a host calendar date.
func Date(d CalendarDate) Value {
	cp := d
	return Value{kind: KindDate, dateVal: &cp}
}

// Alias creates a host location reference in any symbolic form.
func Alias(ref string) Value {
	return Value{kind: KindAlias, strVal: ref}
}

// Data creates a host raw-byte object from a type code and hex payload.
// The payload is not validated here; inbound conversion does that.
func Data(code, hex string) Value {
	if code == "" {
		code = DefaultDataType
	}
	return Value{kind: KindData, code: code, strVal: hex}
}

// Number creates a host floating-point number of the given bridge width.
// Any width other than 32 is treated as 64.
func Number(v float64, bits int) Value {
	if bits != 32 {
		bits = 64
	} else {
		v = float64(float32(v))
	}
	return Value{kind: KindNumber, numVal: v, bits: bits}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value case.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if this is a null value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("bridge: expected %s, got %s", want, v.kind)
}

// AsBool returns the boolean value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return v.intVal, nil
}

// AsReal returns the real value.
func (v Value) AsReal() (float64, error) {
	if v.kind != KindReal {
		return 0, v.mismatch(KindReal)
	}
	return v.numVal, nil
}

// Decimal returns the decimal text of a real.
func (v Value) Decimal() (string, error) {
	if v.kind != KindReal {
		return "", v.mismatch(KindReal)
	}
	return v.strVal, nil
}

// AsText returns the text value.
func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", v.mismatch(KindText)
	}
	return v.strVal, nil
}

// AsBytes returns a copy of the byte value.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.mismatch(KindBytes)
	}
	return cloneBytes(v.bytesVal), nil
}

// AsTimestamp returns the instant.
func (v Value) AsTimestamp() (time.Time, error) {
	if v.kind != KindTimestamp {
		return time.Time{}, v.mismatch(KindTimestamp)
	}
	return v.timeVal, nil
}

// AsFile returns the canonical path of a file reference.
func (v Value) AsFile() (string, error) {
	if v.kind != KindFile {
		return "", v.mismatch(KindFile)
	}
	return v.strVal, nil
}

// AsDate returns the calendar date.
func (v Value) AsDate() (CalendarDate, error) {
	if v.kind != KindDate {
		return CalendarDate{}, v.mismatch(KindDate)
	}
	return *v.dateVal, nil
}

// AsAlias returns the location reference.
func (v Value) AsAlias() (string, error) {
	if v.kind != KindAlias {
		return "", v.mismatch(KindAlias)
	}
	return v.strVal, nil
}

// AsData returns the type code and hex payload.
func (v Value) AsData() (code, hex string, err error) {
	if v.kind != KindData {
		return "", "", v.mismatch(KindData)
	}
	return v.code, v.strVal, nil
}

// AsNumber returns the binary value and bridge width.
func (v Value) AsNumber() (float64, int, error) {
	if v.kind != KindNumber {
		return 0, 0, v.mismatch(KindNumber)
	}
	return v.numVal, v.bits, nil
}

// Items returns a copy of the sequence elements.
func (v Value) Items() ([]Value, error) {
	if v.kind != KindSequence {
		return nil, v.mismatch(KindSequence)
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp, nil
}

// Entries returns a copy of the mapping entries.
func (v Value) Entries() ([]Entry, error) {
	if v.kind != KindMapping {
		return nil, v.mismatch(KindMapping)
	}
	cp := make([]Entry, len(v.entries))
	copy(cp, v.entries)
	return cp, nil
}

// Keys returns the mapping keys in order.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the length of a sequence or mapping, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	default:
		return 0
	}
}

// Index returns the i-th element of a sequence.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindSequence {
		return Null(), v.mismatch(KindSequence)
	}
	if i < 0 || i >= len(v.items) {
		return Null(), fmt.Errorf("bridge: index %d out of bounds (len=%d)", i, len(v.items))
	}
	return v.items[i], nil
}

// Get returns a mapping value by key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Null(), false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Null(), false
}

// ============================================================
// Equality
// ============================================================

// Equal reports structural equality. Reals compare by value, timestamps by
// instant, mappings by key order as well as content.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindReal:
		return a.numVal == b.numVal
	case KindText, KindFile, KindAlias:
		return a.strVal == b.strVal
	case KindBytes:
		return bytes.Equal(a.bytesVal, b.bytesVal)
	case KindTimestamp:
		return a.timeVal.Equal(b.timeVal)
	case KindDate:
		da, db := *a.dateVal, *b.dateVal
		return da.Year == db.Year && da.Month == db.Month && da.Day == db.Day &&
			da.Hour == db.Hour && da.Minute == db.Minute && da.Second == db.Second &&
			da.Nanosecond == db.Nanosecond && da.zoneName() == db.zoneName() &&
			da.sameOffset(db)
	case KindData:
		return a.code == b.code && a.strVal == b.strVal
	case KindNumber:
		return a.numVal == b.numVal && a.bits == b.bits
	case KindSequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("bridge: unhandled kind %d", a.kind))
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
