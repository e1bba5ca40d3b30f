// FILE: lixenwraith/bridge/document_test.go
package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJSONDocuments tests ordered JSON reading and marker encoding
func TestJSONDocuments(t *testing.T) {
	t.Run("KeyOrderPreserved", func(t *testing.T) {
		v, err := ParseDocument([]byte(`{"z": 1, "a": [true, null, 2.5], "m": {"y": "t", "b": -3}}`), FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "m"}, v.Keys())

		m, _ := v.Get("m")
		assert.Equal(t, []string{"y", "b"}, m.Keys())
		a, _ := v.Get("a")
		assertValue(t, Sequence(Bool(true), Null(), Real(2.5)), a)
	})

	t.Run("Numbers", func(t *testing.T) {
		v, err := ParseDocument([]byte(`[1, 1.0, 1e3, 9223372036854775807, 0.1]`), FormatJSON)
		require.NoError(t, err)
		assertValue(t, Sequence(Int(1), Real(1), Real(1000), Int(9223372036854775807), Real(0.1)), v)
	})

	t.Run("Marshal", func(t *testing.T) {
		v := Mapping(
			Field("b", Int(1)),
			Field("a", Real(2)),
			Field("t", Text("x<y")),
			Field("l", Sequence(Null(), Bool(false))),
		)
		data, err := v.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `{"b":1,"a":2.0,"t":"x<y","l":[null,false]}`, string(data))
	})

	t.Run("MarkerRoundTrip", func(t *testing.T) {
		paris, err := time.LoadLocation("Europe/Paris")
		require.NoError(t, err)

		v := Mapping(
			Field("ts", Timestamp(time.Date(2024, 3, 1, 8, 30, 0, 500, time.UTC))),
			Field("zoned", Date(CalendarDate{Year: 2024, Month: time.June, Day: 2, Hour: 7, Location: paris})),
			Field("floating", Date(CalendarDate{Year: 1999, Month: time.December, Day: 31, Hour: 23, Minute: 59})),
			Field("file", File("/tmp/a.txt")),
			Field("alias", Alias("Macintosh HD:tmp:")),
			Field("bytes", Bytes([]byte{0, 1, 2, 0xFF})),
			Field("data", Data("PNGf", "89504E47")),
			Field("number", Number(0.1, 32)),
			Field("real", Real(-0.25)),
		)
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))
		assertValue(t, v, back)
	})

	t.Run("DateOffset", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		d := CalendarDate{Year: 2024, Month: time.November, Day: 3, Hour: 1, Minute: 30, Location: ny, Offset: -5 * 3600, HasOffset: true}

		data, err := Date(d).MarshalJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"offset":"-05:00:00"`)

		var back Value
		require.NoError(t, json.Unmarshal(data, &back))
		got, err := back.AsDate()
		require.NoError(t, err)
		assert.True(t, got.HasOffset)
		assert.Equal(t, -5*3600, got.Offset)
		assert.Equal(t, "America/New_York", got.Location.String())
	})

	t.Run("MarkerErrors", func(t *testing.T) {
		for _, doc := range []string{
			`{"$bridge": "timestamp"}`,
			`{"$bridge": "timestamp", "value": "yesterday"}`,
			`{"$bridge": "bytes", "base64": "***"}`,
			`{"$bridge": "number", "value": "x"}`,
			`{"$bridge": "unknown"}`,
			`{"$bridge": "file", "path": "rel/x"}`,
			`{"$bridge": "date", "value": "2024-01-02T03:04:05", "offset": "soon"}`,
		} {
			_, err := ParseDocument([]byte(doc), FormatJSON)
			assert.Error(t, err, doc)
		}
	})

	t.Run("MarkerNeedsText", func(t *testing.T) {
		v, err := ParseDocument([]byte(`{"$bridge": 1}`), FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, KindMapping, v.Kind())
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseDocument([]byte(`{"a": 1} {"b": 2}`), FormatJSON)
		assert.Error(t, err)
		_, err = ParseDocument([]byte(`[1,`), FormatJSON)
		assert.Error(t, err)
	})
}

// TestTOMLDocuments tests TOML reading
func TestTOMLDocuments(t *testing.T) {
	doc := `
title = "demo"
zeta = 1
pi = 3.5

[owner]
name = "ann"
born = 1979-05-27T07:32:00-08:00
local = 1979-05-27T07:32:00

[[items]]
n = 1

[[items]]
n = 2
`
	v, err := ParseDocument([]byte(doc), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "zeta", "pi", "owner", "items"}, v.Keys())

	pi, _ := v.Get("pi")
	assertValue(t, Real(3.5), pi)

	owner, _ := v.Get("owner")
	assert.Equal(t, []string{"name", "born", "local"}, owner.Keys())

	born, _ := owner.Get("born")
	ts, err := born.AsTimestamp()
	require.NoError(t, err)
	assert.True(t, time.Date(1979, 5, 27, 15, 32, 0, 0, time.UTC).Equal(ts))

	local, _ := owner.Get("local")
	d, err := local.AsDate()
	require.NoError(t, err)
	assert.Nil(t, d.Location)
	assert.Equal(t, 7, d.Hour)

	items, _ := v.Get("items")
	assertValue(t, Sequence(Mapping(Field("n", Int(1))), Mapping(Field("n", Int(2)))), items)

	_, err = ParseDocument([]byte("a = "), FormatTOML)
	assert.Error(t, err)
}

// TestYAMLDocuments tests YAML reading and path selection
func TestYAMLDocuments(t *testing.T) {
	doc := []byte(`
zeta: 1
alpha:
  - x
  - 2.5
big: 18446744073709551615
nested:
  b: true
  a: ~
`)
	t.Run("Parse", func(t *testing.T) {
		v, err := ParseDocument(doc, FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "big", "nested"}, v.Keys())

		zeta, _ := v.Get("zeta")
		assertValue(t, Int(1), zeta)
		alpha, _ := v.Get("alpha")
		assertValue(t, Sequence(Text("x"), Real(2.5)), alpha)
		big, _ := v.Get("big")
		assert.Equal(t, KindReal, big.Kind())
		nested, _ := v.Get("nested")
		assertValue(t, Mapping(Field("b", Bool(true)), Field("a", Null())), nested)
	})

	t.Run("Select", func(t *testing.T) {
		v, err := SelectYAML(doc, "$.alpha[1]")
		require.NoError(t, err)
		assertValue(t, Real(2.5), v)

		v, err = SelectYAML(doc, "$.nested")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, v.Keys())

		v, err = SelectYAML(doc, "$.missing")
		require.NoError(t, err)
		assert.True(t, v.IsNull())

		_, err = SelectYAML(doc, "alpha")
		assert.Error(t, err)
	})
}

// TestLoadDocument tests format detection and file reading
func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("ByExtension", func(t *testing.T) {
		path := filepath.Join(dir, "doc.yml")
		require.NoError(t, os.WriteFile(path, []byte("k: v\n"), 0644))
		v, err := LoadDocument(path)
		require.NoError(t, err)
		assertValue(t, Mapping(Field("k", Text("v"))), v)
	})

	t.Run("ByContent", func(t *testing.T) {
		path := filepath.Join(dir, "doc.data")
		require.NoError(t, os.WriteFile(path, []byte(`{"k": [1]}`), 0644))
		v, err := LoadDocument(path)
		require.NoError(t, err)
		assertValue(t, Mapping(Field("k", Sequence(Int(1)))), v)

		v, err = ParseDocument([]byte("name = \"x\"\n"), FormatAuto)
		require.NoError(t, err)
		assertValue(t, Mapping(Field("name", Text("x"))), v)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := LoadDocument(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)

		_, err = ParseDocument([]byte("{}"), "xml")
		assert.ErrorIs(t, err, ErrDocumentFormat)
	})
}

// TestNativeValues tests conversion to and from Go values
func TestNativeValues(t *testing.T) {
	type inner struct {
		Tags []string `bridge:"tags"`
	}
	type record struct {
		Name    string        `bridge:"name"`
		Count   int           `bridge:"count"`
		Ratio   float32       `bridge:"ratio"`
		Skip    string        `bridge:"-"`
		Empty   string        `bridge:"empty,omitempty"`
		Inner   *inner        `bridge:"inner"`
		Timeout time.Duration `bridge:"timeout"`
	}

	t.Run("FromStruct", func(t *testing.T) {
		v, err := FromNative(record{Name: "n", Count: 2, Ratio: 0.1, Skip: "x", Inner: &inner{Tags: []string{"a"}}, Timeout: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "count", "ratio", "inner", "timeout"}, v.Keys())

		ratio, _ := v.Get("ratio")
		d, err := ratio.Decimal()
		require.NoError(t, err)
		assert.Equal(t, "0.1", d)
	})

	t.Run("FromMap", func(t *testing.T) {
		v, err := FromNative(map[string]any{"b": uint8(1), "a": []byte("hi"), "c": nil})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, v.Keys())

		_, err = FromNative(map[int]string{1: "x"})
		assert.ErrorIs(t, err, ErrUnsupportedType)
		_, err = FromNative(uint64(1 << 63))
		assert.ErrorIs(t, err, ErrUnsupportedType)
		_, err = FromNative(make(chan int))
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("ToNative", func(t *testing.T) {
		v := Mapping(
			Field("i", Int(1)),
			Field("s", Sequence(Text("x"), Real(1.5))),
			Field("d", Data("rdat", "0A0B")),
			Field("bad", Data("rdat", "zz")),
		)
		native, ok := ToNative(v).(map[string]any)
		require.True(t, ok)
		assert.Equal(t, int64(1), native["i"])
		assert.Equal(t, []any{"x", 1.5}, native["s"])
		assert.Equal(t, []byte{0x0A, 0x0B}, native["d"])
		assert.Equal(t, "zz", native["bad"])
	})

	t.Run("Decode", func(t *testing.T) {
		v := Mapping(
			Field("name", Text("svc")),
			Field("count", Text("7")),
			Field("ratio", Real(0.5)),
			Field("inner", Mapping(Field("tags", Sequence(Text("a"), Text("b"))))),
			Field("timeout", Text("250ms")),
		)
		var r record
		require.NoError(t, Decode(v, &r))
		assert.Equal(t, "svc", r.Name)
		assert.Equal(t, 7, r.Count)
		assert.Equal(t, float32(0.5), r.Ratio)
		require.NotNil(t, r.Inner)
		assert.Equal(t, []string{"a", "b"}, r.Inner.Tags)
		assert.Equal(t, 250*time.Millisecond, r.Timeout)

		assert.Error(t, Decode(v, r))
	})
}
