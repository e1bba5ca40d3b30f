// FILE: lixenwraith/bridge/document.go
package bridge

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"
)

// Document formats understood by ParseDocument.
const (
	FormatAuto = ""
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// markerKey tags a JSON object that encodes a non-JSON value.
const markerKey = "$bridge"

// offsetLayout formats the offset field of a date marker.
const offsetLayout = "-07:00:00"

// LoadDocument reads a JSON, TOML or YAML file into a Value, keeping key
// order. The format comes from the extension, then from the content.
func LoadDocument(path string) (Value, error) {
	file, err := os.Open(path)
	if err != nil {
		return Null(), fmt.Errorf("failed to open document '%s': %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxDocumentSize+1))
	if err != nil {
		return Null(), fmt.Errorf("failed to read document '%s': %w", path, err)
	}
	if len(data) > MaxDocumentSize {
		return Null(), fmt.Errorf("%w: document '%s' exceeds %d bytes", ErrValueSize, path, MaxDocumentSize)
	}

	v, err := ParseDocument(data, detectFileFormat(path))
	if err != nil {
		return Null(), fmt.Errorf("document '%s': %w", path, err)
	}
	return v, nil
}

// ParseDocument decodes data in the given format; FormatAuto detects it.
// JSON objects carrying a "$bridge" marker decode to the value they encode.
func ParseDocument(data []byte, format string) (Value, error) {
	if format == FormatAuto {
		format = detectFormatFromContent(data)
	}
	switch format {
	case FormatJSON:
		return parseJSONDocument(data)
	case FormatTOML:
		return parseTOMLDocument(data)
	case FormatYAML:
		return parseYAMLDocument(data)
	default:
		return Null(), fmt.Errorf("%w: %q", ErrDocumentFormat, format)
	}
}

// ============================================================
// JSON
// ============================================================

func parseJSONDocument(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readJSONValue(dec, 0)
	if err != nil {
		return Null(), fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Null(), fmt.Errorf("invalid JSON: trailing data after document")
	}
	return v, nil
}

// readJSONValue reads one value from the token stream, keeping object key order
func readJSONValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Null(), ErrDepthExceeded
	}
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberFromJSON(t)
	case string:
		return Text(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				item, err := readJSONValue(dec, depth+1)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Value{kind: KindSequence, items: items}, nil

		case '{':
			entries := make([]Entry, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, _ := keyTok.(string)
				item, err := readJSONValue(dec, depth+1)
				if err != nil {
					return Null(), err
				}
				entries = append(entries, Entry{Key: key, Value: item})
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			obj := Mapping(entries...)
			if marker, ok := obj.Get(markerKey); ok && marker.kind == KindText {
				return fromMarker(marker.strVal, obj)
			}
			return obj, nil
		}
	}
	return Null(), fmt.Errorf("unexpected token %v", tok)
}

// fromMarker decodes a "$bridge" object
func fromMarker(kind string, obj Value) (Value, error) {
	text := func(key string) (string, error) {
		v, ok := obj.Get(key)
		if !ok || v.kind != KindText {
			return "", fmt.Errorf("%s marker missing %q", kind, key)
		}
		return v.strVal, nil
	}

	switch kind {
	case "timestamp":
		s, err := text("value")
		if err != nil {
			return Null(), err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return Null(), fmt.Errorf("invalid timestamp: %w", err)
		}
		return Timestamp(t), nil

	case "date":
		s, err := text("value")
		if err != nil {
			return Null(), err
		}
		t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
		if err != nil {
			return Null(), fmt.Errorf("invalid date: %w", err)
		}
		d := dateFromTime(t).floating()
		if zone, ok := obj.Get("zone"); ok && zone.kind == KindText {
			if d.Location, err = loadLocation(zone.strVal); err != nil {
				return Null(), err
			}
		}
		if off, ok := obj.Get("offset"); ok && off.kind == KindText {
			o, err := time.Parse(offsetLayout, off.strVal)
			if err != nil {
				return Null(), fmt.Errorf("invalid date offset: %w", err)
			}
			_, d.Offset = o.Zone()
			d.HasOffset = true
		}
		return Date(d), nil

	case "file":
		p, err := text("path")
		if err != nil {
			return Null(), err
		}
		if !path.IsAbs(p) {
			return Null(), fmt.Errorf("file path '%s' is not absolute", p)
		}
		return File(p), nil

	case "alias":
		ref, err := text("ref")
		if err != nil {
			return Null(), err
		}
		return Alias(ref), nil

	case "bytes":
		s, err := text("base64")
		if err != nil {
			return Null(), err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Null(), fmt.Errorf("invalid base64: %w", err)
		}
		return Value{kind: KindBytes, bytesVal: b}, nil

	case "data":
		code, err := text("type")
		if err != nil {
			return Null(), err
		}
		hex, err := text("hex")
		if err != nil {
			return Null(), err
		}
		return Data(code, hex), nil

	case "real":
		s, err := text("value")
		if err != nil {
			return Null(), err
		}
		return ParseReal(s)

	case "number":
		v, ok := obj.Get("value")
		if !ok || (v.kind != KindReal && v.kind != KindInt) {
			return Null(), fmt.Errorf("number marker missing \"value\"")
		}
		f := v.numVal
		if v.kind == KindInt {
			f = float64(v.intVal)
		}
		bits := 64
		if b, ok := obj.Get("bits"); ok && b.kind == KindInt {
			bits = int(b.intVal)
		}
		return Number(f, bits), nil

	default:
		return Null(), fmt.Errorf("unknown %s marker type: %s", markerKey, kind)
	}
}

// MarshalJSON encodes v with mapping key order preserved. Values without a
// JSON form are written as "$bridge" marker objects.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	w := &jsonWriter{buf: &buf}
	Visit[struct{}](v, w)
	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes JSON, including "$bridge" markers, into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := parseJSONDocument(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// jsonWriter emits JSON for each Value case
type jsonWriter struct {
	buf *bytes.Buffer
	err error
}

func (w *jsonWriter) str(s string) {
	enc := json.NewEncoder(w.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil && w.err == nil {
		w.err = err
		return
	}
	w.buf.Truncate(w.buf.Len() - 1) // Encode appends a newline
}

// marker writes {"$bridge": kind, k1: v1, ...} with text fields
func (w *jsonWriter) marker(kind string, fields ...string) struct{} {
	w.buf.WriteString(`{"` + markerKey + `":`)
	w.str(kind)
	for i := 0; i+1 < len(fields); i += 2 {
		w.buf.WriteByte(',')
		w.str(fields[i])
		w.buf.WriteByte(':')
		w.str(fields[i+1])
	}
	w.buf.WriteByte('}')
	return struct{}{}
}

func (w *jsonWriter) Null() struct{} {
	w.buf.WriteString("null")
	return struct{}{}
}

func (w *jsonWriter) Bool(b bool) struct{} {
	w.buf.WriteString(strconv.FormatBool(b))
	return struct{}{}
}

func (w *jsonWriter) Int(i int64) struct{} {
	w.buf.WriteString(strconv.FormatInt(i, 10))
	return struct{}{}
}

// Real keeps a fraction or exponent so the number reads back as a real
func (w *jsonWriter) Real(_ float64, decimal string) struct{} {
	w.buf.WriteString(decimal)
	if !strings.ContainsAny(decimal, ".eE") {
		w.buf.WriteString(".0")
	}
	return struct{}{}
}

func (w *jsonWriter) Text(s string) struct{} {
	w.str(s)
	return struct{}{}
}

func (w *jsonWriter) Bytes(b []byte) struct{} {
	return w.marker("bytes", "base64", base64.StdEncoding.EncodeToString(b))
}

func (w *jsonWriter) Timestamp(t time.Time) struct{} {
	return w.marker("timestamp", "value", t.Format(time.RFC3339Nano))
}

func (w *jsonWriter) File(path string) struct{} {
	return w.marker("file", "path", path)
}

func (w *jsonWriter) Sequence(items []Value) struct{} {
	w.buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		Visit[struct{}](item, w)
	}
	w.buf.WriteByte(']')
	return struct{}{}
}

func (w *jsonWriter) Mapping(entries []Entry) struct{} {
	w.buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.str(e.Key)
		w.buf.WriteByte(':')
		Visit[struct{}](e.Value, w)
	}
	w.buf.WriteByte('}')
	return struct{}{}
}

func (w *jsonWriter) Date(d CalendarDate) struct{} {
	wall := time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.UTC).
		Format("2006-01-02T15:04:05.999999999")
	fields := []string{"value", wall}
	if z := d.zoneName(); z != "" {
		fields = append(fields, "zone", z)
	}
	if d.HasOffset {
		fields = append(fields, "offset", time.Unix(0, 0).In(time.FixedZone("", d.Offset)).Format(offsetLayout))
	}
	return w.marker("date", fields...)
}

func (w *jsonWriter) Alias(ref string) struct{} {
	return w.marker("alias", "ref", ref)
}

func (w *jsonWriter) Data(code, hex string) struct{} {
	return w.marker("data", "type", code, "hex", hex)
}

func (w *jsonWriter) Number(f float64, bits int) struct{} {
	w.buf.WriteString(`{"` + markerKey + `":"number","value":`)
	s := strconv.FormatFloat(f, 'g', -1, 64)
	w.buf.WriteString(s)
	w.buf.WriteString(`,"bits":` + strconv.Itoa(bits) + `}`)
	return struct{}{}
}

// ============================================================
// TOML
// ============================================================

// parseTOMLDocument decodes TOML, ordering keys as they appear in the source
func parseTOMLDocument(data []byte) (Value, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Null(), fmt.Errorf("invalid TOML: %w", err)
	}

	order := make(map[string]int)
	for i, key := range md.Keys() {
		path := strings.Join(key, "\x1f")
		if _, seen := order[path]; !seen {
			order[path] = i
		}
	}
	return tomlToValue(raw, nil, order, 0)
}

func tomlToValue(v any, path []string, order map[string]int, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Null(), ErrDepthExceeded
	}

	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		pos := func(k string) int {
			if i, ok := order[strings.Join(append(path[:len(path):len(path)], k), "\x1f")]; ok {
				return i
			}
			return len(order)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			pi, pj := pos(keys[i]), pos(keys[j])
			if pi != pj {
				return pi < pj
			}
			return keys[i] < keys[j]
		})
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			item, err := tomlToValue(t[k], append(path[:len(path):len(path)], k), order, depth+1)
			if err != nil {
				return Null(), err
			}
			entries[i] = Entry{Key: k, Value: item}
		}
		return Value{kind: KindMapping, entries: entries}, nil

	case []map[string]any:
		items := make([]Value, len(t))
		for i, m := range t {
			item, err := tomlToValue(m, path, order, depth+1)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Value{kind: KindSequence, items: items}, nil

	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := tomlToValue(e, path, order, depth+1)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Value{kind: KindSequence, items: items}, nil

	case time.Time:
		// Local date-times carry no offset; they are host-style floating dates
		switch t.Location().String() {
		case "datetime-local", "date-local", "time-local":
			return Date(dateFromTime(t).floating()), nil
		}
		return Timestamp(t), nil

	default:
		return FromNative(v)
	}
}

// ============================================================
// YAML
// ============================================================

func parseYAMLDocument(data []byte) (Value, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return Null(), fmt.Errorf("invalid YAML: %w", err)
	}
	return yamlToValue(raw, 0)
}

// SelectYAML decodes the node at a YAML path such as "$.servers[0].name".
func SelectYAML(data []byte, path string) (Value, error) {
	p, err := yaml.PathString(path)
	if err != nil {
		return Null(), fmt.Errorf("invalid YAML path %q: %w", path, err)
	}
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return Null(), fmt.Errorf("invalid YAML: %w", err)
	}
	node, err := p.FilterFile(file)
	if err != nil {
		if yaml.IsNotFoundNodeError(err) {
			return Null(), nil
		}
		return Null(), fmt.Errorf("reading YAML path %q: %w", path, err)
	}

	var raw any
	if err := yaml.NodeToValue(node, &raw, yaml.UseOrderedMap()); err != nil {
		return Null(), fmt.Errorf("decoding YAML path %q: %w", path, err)
	}
	return yamlToValue(raw, 0)
}

func yamlToValue(v any, depth int) (Value, error) {
	if depth > DefaultMaxDepth {
		return Null(), ErrDepthExceeded
	}

	switch t := v.(type) {
	case yaml.MapSlice:
		entries := make([]Entry, len(t))
		for i, item := range t {
			val, err := yamlToValue(item.Value, depth+1)
			if err != nil {
				return Null(), err
			}
			entries[i] = Entry{Key: fmt.Sprint(item.Key), Value: val}
		}
		return Mapping(entries...), nil

	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			item, err := yamlToValue(e, depth+1)
			if err != nil {
				return Null(), err
			}
			items[i] = item
		}
		return Value{kind: KindSequence, items: items}, nil

	case uint64:
		if t > 1<<63-1 {
			return ParseReal(strconv.FormatUint(t, 10))
		}
		return Int(int64(t)), nil

	default:
		return FromNative(v)
	}
}
