// FILE: lixenwraith/bridge/text.go
package bridge

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// mapText applies fn to a Text, or to each item of a Sequence. Non-text
// items and failed conversions become Null.
func mapText(v Value, fn func(string) (string, bool)) (Value, error) {
	switch v.kind {
	case KindText:
		s, ok := fn(v.strVal)
		if !ok {
			return Null(), nil
		}
		return Text(s), nil
	case KindSequence:
		out := make([]Value, len(v.items))
		for i, item := range v.items {
			if item.kind != KindText {
				continue
			}
			if s, ok := fn(item.strVal); ok {
				out[i] = Text(s)
			}
		}
		return sequenceOf(out), nil
	}
	return Null(), fmt.Errorf("%w: expected text or sequence, got %s", ErrUnsupportedType, v.kind)
}

func always(fn func(string) string) func(string) (string, bool) {
	return func(s string) (string, bool) { return fn(s), true }
}

// ============================================================
// Entities
// ============================================================

var (
	xmlEncoder = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	xmlDecoder = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// EncodeXML escapes the five reserved XML characters.
func EncodeXML(v Value) (Value, error) {
	return mapText(v, always(xmlEncoder.Replace))
}

// DecodeXML unescapes the five reserved XML entities.
func DecodeXML(v Value) (Value, error) {
	return mapText(v, always(xmlDecoder.Replace))
}

// encodeEntities replaces characters outside printable ASCII with &#...;
func encodeEntities(s string, hexForm bool) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= 32 && r <= 126 {
			sb.WriteRune(r)
			continue
		}
		if hexForm {
			fmt.Fprintf(&sb, "&#x%04X;", r)
		} else {
			fmt.Fprintf(&sb, "&#%d;", r)
		}
	}
	return sb.String()
}

// EncodeDecimal writes characters outside ASCII 32-126 as &#DD;.
func EncodeDecimal(v Value) (Value, error) {
	return mapText(v, always(func(s string) string { return encodeEntities(s, false) }))
}

// EncodeHex writes characters outside ASCII 32-126 as &#xHHHH;.
func EncodeHex(v Value) (Value, error) {
	return mapText(v, always(func(s string) string { return encodeEntities(s, true) }))
}

// DecodeNumeric decodes &#DD; and &#xHHHH; references. Malformed or
// invalid references are left in place.
func DecodeNumeric(v Value) (Value, error) {
	return mapText(v, always(decodeNumeric))
}

func decodeNumeric(s string) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, "&#")
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		s = s[i:]

		end := strings.IndexByte(s, ';')
		if end < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		body := s[2:end]
		base := 10
		if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
			body, base = body[1:], 16
		}
		n, err := strconv.ParseUint(body, base, 32)
		if err != nil || body == "" || !utf8.ValidRune(rune(n)) {
			sb.WriteString("&#")
			s = s[2:]
			continue
		}
		sb.WriteRune(rune(n))
		s = s[end+1:]
	}
}

// MD5 returns the lowercase hex MD5 digest of the UTF-8 text.
func MD5(v Value) (Value, error) {
	return mapText(v, always(func(s string) string {
		sum := md5.Sum([]byte(s))
		return hex.EncodeToString(sum[:])
	}))
}

// ============================================================
// Quotes and spacing
// ============================================================

// opensQuote reports whether a quote after prev starts a quotation.
func opensQuote(prev rune, first bool) bool {
	if first || unicode.IsSpace(prev) {
		return true
	}
	return strings.ContainsRune("([{<—–-/", prev)
}

// SmartQuoted converts straight quotes to typographer's quotes.
func SmartQuoted(v Value) (Value, error) {
	return mapText(v, always(func(s string) string {
		var sb strings.Builder
		var prev rune
		first := true
		for _, r := range s {
			switch r {
			case '"':
				if opensQuote(prev, first) {
					sb.WriteRune('“')
				} else {
					sb.WriteRune('”')
				}
			case '\'':
				if opensQuote(prev, first) {
					sb.WriteRune('‘')
				} else {
					sb.WriteRune('’')
				}
			default:
				sb.WriteRune(r)
			}
			prev, first = r, false
		}
		return sb.String()
	}))
}

var unsmartReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
)

// UnsmartQuoted converts typographer's quotes to straight quotes.
func UnsmartQuoted(v Value) (Value, error) {
	return mapText(v, always(unsmartReplacer.Replace))
}

// paragraph is a line of text with the terminator that ended it.
type paragraph struct {
	text string
	term string
}

// splitParagraphs splits on \n, \r\n, \r and U+2029 keeping terminators.
func splitParagraphs(s string) []paragraph {
	var out []paragraph
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\r' && i+1 < len(s) && s[i+1] == '\n':
			out = append(out, paragraph{s[start:i], "\r\n"})
			i += 2
			start = i
			continue
		case r == '\n' || r == '\r' || r == '\u2029':
			out = append(out, paragraph{s[start:i], s[i : i+size]})
			start = i + size
		}
		i += size
	}
	if start < len(s) {
		out = append(out, paragraph{s[start:], ""})
	}
	return out
}

func joinParagraphs(ps []paragraph) string {
	var sb strings.Builder
	for _, p := range ps {
		sb.WriteString(p.text)
		sb.WriteString(p.term)
	}
	return sb.String()
}

// CleanSpaced collapses runs of spaces to one and trims spaces from the
// ends of each paragraph.
func CleanSpaced(v Value) (Value, error) {
	return mapText(v, always(func(s string) string {
		ps := splitParagraphs(s)
		for i, p := range ps {
			fields := strings.FieldsFunc(p.text, func(r rune) bool { return r == ' ' })
			ps[i].text = strings.Join(fields, " ")
		}
		return joinParagraphs(ps)
	}))
}

// EmptyLineFree deletes paragraphs that are empty or hold only spaces and
// tabs.
func EmptyLineFree(v Value) (Value, error) {
	return mapText(v, always(func(s string) string {
		ps := splitParagraphs(s)
		unterminated := len(ps) > 0 && ps[len(ps)-1].term == ""
		kept := make([]paragraph, 0, len(ps))
		for _, p := range ps {
			if strings.Trim(p.text, " \t") != "" {
				kept = append(kept, p)
			}
		}
		if n := len(kept); n > 0 && unterminated {
			kept[n-1].term = ""
		}
		return joinParagraphs(kept)
	}))
}

// ============================================================
// Transforms
// ============================================================

type transformPair struct {
	forward func() transform.Transformer
	inverse func() transform.Transformer
}

func normalizer(f norm.Form) func() transform.Transformer {
	return func() transform.Transformer { return f }
}

func upper() transform.Transformer { return cases.Upper(language.Und) }
func lower() transform.Transformer { return cases.Lower(language.Und) }
func title() transform.Transformer { return cases.Title(language.Und) }
func narrow() transform.Transformer { return width.Narrow }
func widen() transform.Transformer { return width.Widen }

func latinASCII() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// transforms maps lower-cased ICU-style names to x/text transformers.
var transforms = map[string]transformPair{
	"nfc":                 {normalizer(norm.NFC), normalizer(norm.NFD)},
	"nfd":                 {normalizer(norm.NFD), normalizer(norm.NFC)},
	"nfkc":                {normalizer(norm.NFKC), normalizer(norm.NFD)},
	"nfkd":                {normalizer(norm.NFKD), normalizer(norm.NFC)},
	"upper":               {upper, lower},
	"lower":               {lower, upper},
	"title":               {title, lower},
	"latin-ascii":         {latinASCII, nil},
	"fullwidth-halfwidth": {narrow, widen},
	"halfwidth-fullwidth": {widen, narrow},
}

// lookupTransform resolves an ICU-style name such as "Any-Upper",
// "Latin-ASCII" or "Fullwidth-Halfwidth". A chain is written with ';'.
func lookupTransform(name string, inverse bool) (transform.Transformer, error) {
	var chain []transform.Transformer
	for _, part := range strings.Split(name, ";") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			continue
		}
		key = strings.TrimPrefix(key, "any-")
		pair, ok := transforms[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTransformUnknown, part)
		}
		f := pair.forward
		if inverse {
			if pair.inverse == nil {
				return nil, fmt.Errorf("%w: %q has no inverse", ErrTransformUnknown, part)
			}
			f = pair.inverse
		}
		chain = append(chain, f())
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: empty name", ErrTransformUnknown)
	}
	if inverse {
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
	}
	return transform.Chain(chain...), nil
}

// Transform applies a named transform, or its inverse, to a Text or each
// item of a Sequence.
func Transform(v Value, name string, inverse bool) (Value, error) {
	if _, err := lookupTransform(name, inverse); err != nil {
		return Null(), err
	}
	return mapText(v, func(s string) (string, bool) {
		// transformers carry state, so each string gets a fresh chain
		t, _ := lookupTransform(name, inverse)
		out, _, err := transform.String(t, s)
		return out, err == nil
	})
}

// ============================================================
// Delimited text
// ============================================================

// ArrayFromTSV splits tab-separated lines into a list of lists of Text.
// A final empty line is ignored.
func ArrayFromTSV(s string) Value {
	ps := splitParagraphs(s)
	out := make([]Value, 0, len(ps))
	for _, p := range ps {
		fields := strings.Split(p.text, "\t")
		row := make([]Value, len(fields))
		for i, f := range fields {
			row[i] = Text(f)
		}
		out = append(out, sequenceOf(row))
	}
	return sequenceOf(out)
}

// ArrayFromCSV parses comma-separated values with quoting. comma is the
// single separator character; "" means ",".
func ArrayFromCSV(s string, comma string) (Value, error) {
	sep := ','
	if comma != "" {
		r, size := utf8.DecodeRuneInString(comma)
		if size != len(comma) {
			return Null(), fmt.Errorf("%w: separator must be one character, got %q", ErrUnsupportedType, comma)
		}
		sep = r
	}

	reader := csv.NewReader(strings.NewReader(s))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	out := make([]Value, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Null(), fmt.Errorf("failed to parse CSV: %w", err)
		}
		row := make([]Value, len(record))
		for i, f := range record {
			row[i] = Text(f)
		}
		out = append(out, sequenceOf(row))
	}
	return sequenceOf(out), nil
}
