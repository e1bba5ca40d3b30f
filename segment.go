// FILE: lixenwraith/bridge/segment.go
package bridge

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/rivo/uniseg"
)

// Unit is a kind of text segment.
type Unit int

const (
	UnitCharacters Unit = iota // grapheme clusters
	UnitWords
	UnitSentences
	UnitParagraphs
	UnitLines // paragraphs also broken at U+2028
)

var unitNames = map[string]Unit{
	"characters": UnitCharacters,
	"words":      UnitWords,
	"sentences":  UnitSentences,
	"paragraphs": UnitParagraphs,
	"lines":      UnitLines,
}

// ParseUnit reads a unit name such as "words".
func ParseUnit(name string) (Unit, bool) {
	u, ok := unitNames[strings.ToLower(strings.TrimSpace(name))]
	return u, ok
}

func (u Unit) String() string {
	for name, unit := range unitNames {
		if unit == u {
			return name
		}
	}
	return fmt.Sprintf("unit(%d)", int(u))
}

// span is a segment as rune offsets into its string.
type span struct {
	text          string
	start, length int
}

// segments splits s into spans of unit u.
func segments(s string, u Unit) []span {
	var out []span
	pos := 0
	add := func(seg string, keep bool) {
		n := utf8.RuneCountInString(seg)
		if keep {
			out = append(out, span{text: seg, start: pos, length: n})
		}
		pos += n
	}

	switch u {
	case UnitCharacters:
		g := uniseg.NewGraphemes(s)
		for g.Next() {
			add(g.Str(), true)
		}

	case UnitWords:
		state := -1
		rest := s
		for rest != "" {
			var word string
			word, rest, state = uniseg.FirstWordInString(rest, state)
			add(word, strings.IndexFunc(word, func(r rune) bool {
				return unicode.IsLetter(r) || unicode.IsNumber(r)
			}) >= 0)
		}

	case UnitSentences:
		state := -1
		rest := s
		for rest != "" {
			var sentence string
			sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
			trimmed := strings.TrimRightFunc(sentence, unicode.IsSpace)
			lead := len(trimmed) - len(strings.TrimLeftFunc(trimmed, unicode.IsSpace))
			add(trimmed[:lead], false)
			add(trimmed[lead:], lead < len(trimmed))
			add(sentence[len(trimmed):], false)
		}

	case UnitParagraphs, UnitLines:
		for _, p := range splitParagraphs(s) {
			parts := []string{p.text}
			if u == UnitLines {
				parts = strings.Split(p.text, "\u2028")
			}
			for i, part := range parts {
				add(part, true)
				if i < len(parts)-1 {
					add("\u2028", false)
				}
			}
			add(p.term, false)
		}
	}
	return out
}

// Segments returns the segments of s as a Sequence of Text.
func Segments(s string, u Unit) Value {
	spans := segments(s, u)
	out := make([]Value, len(spans))
	for i, sp := range spans {
		out[i] = Text(sp.text)
	}
	return sequenceOf(out)
}

// SegmentRanges returns the {location, length} range of each segment of s
// in UTF-16 units.
func SegmentRanges(s string, u Unit) Value {
	ix := newUTF16Index([]rune(s))
	spans := segments(s, u)
	out := make([]Value, len(spans))
	for i, sp := range spans {
		out[i] = ix.rangeOf(sp.start, sp.length).Value()
	}
	return sequenceOf(out)
}

// SegmentCount returns the number of segments of s.
func SegmentCount(s string, u Unit) int {
	if u == UnitCharacters {
		return uniseg.GraphemeClusterCount(s)
	}
	return len(segments(s, u))
}

// ============================================================
// Literal search
// ============================================================

// StringsOf returns every occurrence of find in s.
func (e *Engine) StringsOf(find, s string, ignoreCase bool) (Value, error) {
	if find == "" {
		return sequenceOf(nil), nil
	}
	all, err := e.matcher.FindAll(regexp2.Escape(find), s, MatchOptions{IgnoreCase: ignoreCase}, nil)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, len(all))
	for i, recs := range all {
		out[i] = Text(*recs[0].FoundString)
	}
	return sequenceOf(out), nil
}

// RangesOf returns the range of every occurrence of find in s.
func (e *Engine) RangesOf(find, s string, ignoreCase bool) (Value, error) {
	if find == "" {
		return sequenceOf(nil), nil
	}
	all, err := e.matcher.FindAll(regexp2.Escape(find), s, MatchOptions{IgnoreCase: ignoreCase}, nil)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, len(all))
	for i, recs := range all {
		out[i] = recs[0].FoundRange.Value()
	}
	return sequenceOf(out), nil
}

// ============================================================
// Character offsets
// ============================================================

// characterIndex resolves a 1-based character index; negative indexes
// count from the end.
func characterIndex(spans []span, index int) (int, error) {
	n := len(spans)
	if index < 0 {
		index = n + index + 1
	}
	if index < 1 || index > n {
		return 0, fmt.Errorf("%w: character %d of %d", ErrIndexOutOfRange, index, n)
	}
	return index - 1, nil
}

// RangeOfCharacter returns the UTF-16 range of the character at the
// 1-based index.
func RangeOfCharacter(s string, index int) (Range, error) {
	spans := segments(s, UnitCharacters)
	i, err := characterIndex(spans, index)
	if err != nil {
		return absentRange, err
	}
	ix := newUTF16Index([]rune(s))
	return ix.rangeOf(spans[i].start, spans[i].length), nil
}

// LocationOfCharacter returns the UTF-16 location where the character at
// the 1-based index starts.
func LocationOfCharacter(s string, index int) (int, error) {
	r, err := RangeOfCharacter(s, index)
	if err != nil {
		return NotFound, err
	}
	return r.Location, nil
}

// OffsetOfLocation returns the 1-based index of the character holding the
// UTF-16 location.
func OffsetOfLocation(s string, location int) (int, error) {
	ix := newUTF16Index([]rune(s))
	if location < 0 || location >= ix[len(ix)-1] {
		return 0, fmt.Errorf("%w: location %d of %d", ErrIndexOutOfRange, location, ix[len(ix)-1])
	}
	r := ix.runeAt(location)
	for i, sp := range segments(s, UnitCharacters) {
		if r >= sp.start && r < sp.start+sp.length {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: location %d", ErrIndexOutOfRange, location)
}

// OffsetsOfRange returns the 1-based indexes of the first and last
// characters the range covers.
func OffsetsOfRange(s string, r Range) (first, last int, err error) {
	if r.Length <= 0 {
		return 0, 0, fmt.Errorf("%w: empty range", ErrIndexOutOfRange)
	}
	if first, err = OffsetOfLocation(s, r.Location); err != nil {
		return 0, 0, err
	}
	if last, err = OffsetOfLocation(s, r.Location+r.Length-1); err != nil {
		return 0, 0, err
	}
	return first, last, nil
}
