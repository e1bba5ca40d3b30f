// FILE: lixenwraith/bridge/match.go
package bridge

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/dlclark/regexp2"
)

// NotFound is the location of a range that matched nothing.
const NotFound = math.MaxInt

// Range is a span of a string in UTF-16 code units.
type Range struct {
	Location int
	Length   int
}

// absentRange is the range of a group that did not participate.
var absentRange = Range{Location: NotFound, Length: 0}

// Value returns the range as {location, length}.
func (r Range) Value() Value {
	return Mapping(
		Field("location", Int(int64(r.Location))),
		Field("length", Int(int64(r.Length))),
	)
}

// MatchRecord describes one capture group of one match.
// FoundString is nil when the group is absent.
type MatchRecord struct {
	CaptureGroup int
	FoundString  *string
	FoundRange   Range
}

// Absent reports whether the group did not participate in the match.
func (r MatchRecord) Absent() bool {
	return r.FoundString == nil
}

// Value returns the record as {captureGroup, foundString, foundRange}.
func (r MatchRecord) Value() Value {
	found := Null()
	if r.FoundString != nil {
		found = Text(*r.FoundString)
	}
	return Mapping(
		Field("captureGroup", Int(int64(r.CaptureGroup))),
		Field("foundString", found),
		Field("foundRange", r.FoundRange.Value()),
	)
}

// MatchOptions selects regex behaviour.
type MatchOptions struct {
	IgnoreCase   bool // i
	Extended     bool // x: whitespace and #comments in the pattern
	DotAll       bool // s: "." matches line terminators
	Multiline    bool // m: "^" and "$" match at every line
	UnicodeWords bool // w: \b follows Unicode word characters
}

// ParseMatchOptions reads option letters in any order. Unknown letters are ignored.
func ParseMatchOptions(letters string) MatchOptions {
	var o MatchOptions
	for _, c := range letters {
		switch c {
		case 'i':
			o.IgnoreCase = true
		case 'x':
			o.Extended = true
		case 's':
			o.DotAll = true
		case 'm':
			o.Multiline = true
		case 'w':
			o.UnicodeWords = true
		}
	}
	return o
}

// String returns the option letters in canonical order.
func (o MatchOptions) String() string {
	var sb strings.Builder
	for _, f := range []struct {
		on bool
		c  byte
	}{{o.IgnoreCase, 'i'}, {o.Extended, 'x'}, {o.DotAll, 's'}, {o.Multiline, 'm'}, {o.UnicodeWords, 'w'}} {
		if f.on {
			sb.WriteByte(f.c)
		}
	}
	return sb.String()
}

// regexOptions maps to engine flags. UnicodeWords has no flag; the
// pattern rewrite handles it.
func (o MatchOptions) regexOptions() regexp2.RegexOptions {
	opts := regexp2.None
	if o.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if o.Extended {
		opts |= regexp2.IgnorePatternWhitespace
	}
	if o.DotAll {
		opts |= regexp2.Singleline
	}
	if o.Multiline {
		opts |= regexp2.Multiline
	}
	return opts
}

// Matcher runs patterns over text and reports capture groups as records.
type Matcher struct {
	cache   *Cache
	timeout time.Duration
	logger  *slog.Logger
}

// NewMatcher creates a matcher. cache may be nil; timeout 0 is unbounded.
func NewMatcher(cache *Cache, timeout time.Duration, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Matcher{cache: cache, timeout: timeout, logger: logger}
}

// FindAll returns, for every non-overlapping match from left to right, one
// record per requested group in caller order. With no groups, each match
// yields the group 0 record.
func (m *Matcher) FindAll(pattern, subject string, opts MatchOptions, groups []int) ([][]MatchRecord, error) {
	return m.scan(pattern, subject, opts, groups, -1)
}

// FindFirst returns the records of the first match. ok is false when the
// pattern does not match.
func (m *Matcher) FindFirst(pattern, subject string, opts MatchOptions, groups []int) ([]MatchRecord, bool, error) {
	all, err := m.scan(pattern, subject, opts, groups, 1)
	if err != nil || len(all) == 0 {
		return nil, false, err
	}
	return all[0], true, nil
}

// scan collects up to limit matches; limit < 0 means all.
func (m *Matcher) scan(pattern, subject string, opts MatchOptions, groups []int, limit int) ([][]MatchRecord, error) {
	var re *regexp2.Regexp
	source, err := rewritePattern(pattern, opts)
	if err == nil {
		re, err = m.cache.regex(source, opts.regexOptions(), m.timeout)
	}
	if err != nil {
		m.logger.Warn("pattern rejected", "pattern", pattern, "options", opts.String(), "error", err)
		return nil, err
	}

	runes := []rune(subject)
	ix := newUTF16Index(runes)
	if len(groups) == 0 {
		groups = []int{0}
	}

	results := make([][]MatchRecord, 0)
	match, err := re.FindRunesMatch(runes)
	for err == nil && match != nil {
		results = append(results, recordsFor(match, groups, ix))
		if limit > 0 && len(results) >= limit {
			break
		}
		match, err = re.FindNextMatch(match)
	}
	if err != nil {
		m.logger.Warn("pattern match aborted", "pattern", pattern, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMatchTimeout, err)
	}
	return results, nil
}

func recordsFor(match *regexp2.Match, groups []int, ix utf16Index) []MatchRecord {
	recs := make([]MatchRecord, len(groups))
	for i, g := range groups {
		recs[i] = recordFor(match, g, ix)
	}
	return recs
}

// recordFor reports group g, or an absent record when g does not exist or
// did not participate.
func recordFor(match *regexp2.Match, g int, ix utf16Index) MatchRecord {
	rec := MatchRecord{CaptureGroup: g, FoundRange: absentRange}
	if g < 0 {
		return rec
	}
	grp := match.GroupByNumber(g)
	if grp == nil || len(grp.Captures) == 0 {
		return rec
	}
	s := grp.String()
	rec.FoundString = &s
	rec.FoundRange = ix.rangeOf(grp.Index, grp.Length)
	return rec
}

// utf16Index maps rune offsets to UTF-16 offsets; entry i is the number of
// code units before rune i.
type utf16Index []int

func newUTF16Index(runes []rune) utf16Index {
	ix := make(utf16Index, len(runes)+1)
	for i, r := range runes {
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		ix[i+1] = ix[i] + n
	}
	return ix
}

func (ix utf16Index) rangeOf(start, length int) Range {
	return Range{Location: ix[start], Length: ix[start+length] - ix[start]}
}

// runeAt returns the rune offset holding UTF-16 location loc.
func (ix utf16Index) runeAt(loc int) int {
	lo, hi := 0, len(ix)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix[mid] <= loc {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
