// FILE: lixenwraith/bridge/match_test.go
package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// found returns the matched text of a record, failing on absent groups
func found(t *testing.T, r MatchRecord) string {
	t.Helper()
	require.NotNil(t, r.FoundString, "group %d is absent", r.CaptureGroup)
	return *r.FoundString
}

// TestMatcher tests match record extraction
func TestMatcher(t *testing.T) {
	m := NewMatcher(nil, 0, nil)

	t.Run("WholeMatchRanges", func(t *testing.T) {
		all, err := m.FindAll(`(\d+)-(\d+)`, "12-34 and 56-78", MatchOptions{}, nil)
		require.NoError(t, err)
		require.Len(t, all, 2)

		assert.Equal(t, "12-34", found(t, all[0][0]))
		assert.Equal(t, Range{Location: 0, Length: 5}, all[0][0].FoundRange)
		assert.Equal(t, "56-78", found(t, all[1][0]))
		assert.Equal(t, Range{Location: 10, Length: 5}, all[1][0].FoundRange)
	})

	t.Run("AbsentGroup", func(t *testing.T) {
		all, err := m.FindAll(`(a)(b)?`, "a", MatchOptions{}, []int{1, 2})
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Len(t, all[0], 2)

		assert.Equal(t, "a", found(t, all[0][0]))
		assert.Equal(t, Range{Location: 0, Length: 1}, all[0][0].FoundRange)

		absent := all[0][1]
		assert.True(t, absent.Absent())
		assert.Equal(t, 2, absent.CaptureGroup)
		assert.Equal(t, Range{Location: NotFound, Length: 0}, absent.FoundRange)

		want := Mapping(
			Field("captureGroup", Int(2)),
			Field("foundString", Null()),
			Field("foundRange", Mapping(
				Field("location", Int(NotFound)),
				Field("length", Int(0)),
			)),
		)
		assert.True(t, Equal(want, absent.Value()), "got %s", absent.Value())
	})

	t.Run("RecordCountAndOrder", func(t *testing.T) {
		groups := []int{2, 9, 1, 2, 0}
		all, err := m.FindAll(`(\w)(\d)`, "a1 b2 c3", MatchOptions{}, groups)
		require.NoError(t, err)
		require.Len(t, all, 3)

		for _, recs := range all {
			require.Len(t, recs, len(groups))
			for i, g := range groups {
				assert.Equal(t, g, recs[i].CaptureGroup)
				assert.Equal(t, recs[i].Absent(), recs[i].FoundRange == absentRange)
			}
			assert.True(t, recs[1].Absent(), "nonexistent group")
		}
		assert.Equal(t, "2", found(t, all[1][0]))
		assert.Equal(t, "b", found(t, all[1][2]))
		assert.Equal(t, "2", found(t, all[1][3]))
		assert.Equal(t, "b2", found(t, all[1][4]))
	})

	t.Run("UntakenAlternation", func(t *testing.T) {
		all, err := m.FindAll(`(x)|(y)`, "y", MatchOptions{}, []int{1, 2})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0][0].Absent())
		assert.Equal(t, "y", found(t, all[0][1]))
	})

	t.Run("GroupsNumberedInSourceOrder", func(t *testing.T) {
		all, err := m.FindAll(`(?<y>\d+)-(\d+)`, "12-34", MatchOptions{}, []int{1, 2})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "12", found(t, all[0][0]))
		assert.Equal(t, "34", found(t, all[0][1]))

		all, err = m.FindAll(`(a)(?:b)(?<n>c)(d)`, "abcd", MatchOptions{}, []int{1, 2, 3})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "a", found(t, all[0][0]))
		assert.Equal(t, "c", found(t, all[0][1]))
		assert.Equal(t, "d", found(t, all[0][2]))
	})

	t.Run("NamedBackreference", func(t *testing.T) {
		all, err := m.FindAll(`(?<d>\d)-\k<d>`, "1-1 2-3", MatchOptions{}, nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "1-1", found(t, all[0][0]))

		_, err = m.FindAll(`(?<d>a)(?<d>b)`, "ab", MatchOptions{}, nil)
		assert.ErrorIs(t, err, ErrPatternInvalid)
	})

	t.Run("NegativeGroupAbsent", func(t *testing.T) {
		recs, ok, err := m.FindFirst(`a`, "a", MatchOptions{}, []int{-1})
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, recs[0].Absent())
	})

	t.Run("NoMatch", func(t *testing.T) {
		all, err := m.FindAll(`z`, "abc", MatchOptions{}, nil)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		_, ok, err := m.FindFirst(`z`, "abc", MatchOptions{}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UTF16Ranges", func(t *testing.T) {
		// the emoji is two UTF-16 code units
		all, err := m.FindAll(`b+`, "a\U0001F600é bb", MatchOptions{}, nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, Range{Location: 5, Length: 2}, all[0][0].FoundRange)

		all, err = m.FindAll(`.`, "\U0001F600", MatchOptions{}, nil)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, Range{Location: 0, Length: 2}, all[0][0].FoundRange)
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := m.FindAll(`(unclosed`, "x", MatchOptions{}, nil)
		assert.ErrorIs(t, err, ErrPatternInvalid)
	})

	t.Run("Timeout", func(t *testing.T) {
		slow := NewMatcher(nil, time.Millisecond, nil)
		subject := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa!"
		_, err := slow.FindAll(`(a+)+$`, subject, MatchOptions{}, nil)
		assert.ErrorIs(t, err, ErrMatchTimeout)
	})
}

// TestMatchOptions tests option letters
func TestMatchOptions(t *testing.T) {
	m := NewMatcher(nil, 0, nil)

	t.Run("Parse", func(t *testing.T) {
		o := ParseMatchOptions("mwqi")
		assert.Equal(t, MatchOptions{IgnoreCase: true, Multiline: true, UnicodeWords: true}, o)
		assert.Equal(t, "imw", o.String())
		assert.Equal(t, ParseMatchOptions("sx"), ParseMatchOptions("xs"))
	})

	tests := []struct {
		name    string
		pattern string
		subject string
		options string
		want    []string
	}{
		{"CaseInsensitive", `abc`, "ABC abc", "i", []string{"ABC", "abc"}},
		{"CaseSensitive", `abc`, "ABC abc", "", []string{"abc"}},
		{"Multiline", `^\w+$`, "one\ntwo", "m", []string{"one", "two"}},
		{"DotAll", `a.b`, "a\nb", "s", []string{"a\nb"}},
		{"DotNoNewline", `a.b`, "a\nb", "", []string{}},
		{"Extended", `a b # comment`, "ab", "x", []string{"ab"}},
		{"UnicodeWordBoundary", `\bété\b`, "un été chaud", "w", []string{"été"}},
		{"UnicodeWordsKeepApostrophe", `\b[\w'.]+?\b`, "can't 3.14", "w", []string{"can't", "3.14"}},
		{"WordCharsSplitApostrophe", `\b[\w'.]+?\b`, "can't", "", []string{"can", "'", "t"}},
		{"UnicodeWordsNotBoundary", `\Bt`, "can't", "w", []string{"t"}},
		{"WordCharsNotBoundary", `\Bt`, "can't", "", []string{}},
		{"InlineUnicodeWords", `(?w)\b[\w'.]+?\b`, "can't", "", []string{"can't"}},
		{"ScopedUnicodeWords", `(?w:\b\w+)'\b`, "can't", "", []string{"can'"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := m.FindAll(tt.pattern, tt.subject, ParseMatchOptions(tt.options), nil)
			require.NoError(t, err)
			got := make([]string, 0, len(all))
			for _, recs := range all {
				got = append(got, found(t, recs[0]))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestICUSyntax tests pattern constructs the engine reads through a rewrite
func TestICUSyntax(t *testing.T) {
	m := NewMatcher(nil, 0, nil)

	tests := []struct {
		name    string
		pattern string
		subject string
		want    []string
	}{
		{"Possessive", `a++b`, "aaab", []string{"aaab"}},
		{"PossessiveKeepsAll", `a++a`, "aaaa", []string{}},
		{"PossessiveGroup", `(?:ab)*+abc`, "ababc", []string{}},
		{"PossessiveBounded", `\d{2,3}+3`, "123", []string{}},
		{"PossessiveClass", `[ab]*+b`, "abab", []string{}},
		{"PossessiveOptional", `a?+a`, "a", []string{}},
		{"Atomic", `(?>a+)a`, "aaa", []string{}},
		{"Greedy", `\d{2,3}3`, "123", []string{"123"}},
		{"Lazy", `a+?`, "aa", []string{"a", "a"}},
		{"Quoted", `\Qa.b\E`, "axb a.b", []string{"a.b"}},
		{"QuotedQuantified", `\Qab\E+`, "abbb", []string{"abbb"}},
		{"BraceLiteral", `x{,3}`, "x{,3}", []string{"x{,3}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := m.FindAll(tt.pattern, tt.subject, MatchOptions{}, nil)
			require.NoError(t, err)
			got := make([]string, 0, len(all))
			for _, recs := range all {
				got = append(got, found(t, recs[0]))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestRewritePattern tests the engine form of ICU patterns
func TestRewritePattern(t *testing.T) {
	tests := []struct {
		pattern string
		options string
		want    string
	}{
		{`(\d+)-(\d+)`, "", `(?<1>\d+)-(?<2>\d+)`},
		{`(?<y>\d+)-(\d+)`, "", `(?<1>\d+)-(?<2>\d+)`},
		{`(?:a)(?=b)(?<=c)(d)`, "", `(?:a)(?=b)(?<=c)(?<1>d)`},
		{`(?<d>\d)\k<d>`, "", `(?<1>\d)\k<1>`},
		{`a++b`, "", `(?>a+)b`},
		{`(ab)*+c`, "", `(?>(?<1>ab)*)c`},
		{`[ab]{2,3}+`, "", `(?>[ab]{2,3})`},
		{`[+]++`, "", `(?>[+]+)`},
		{`a*?b`, "", `a*?b`},
		{`\Qa.b\E`, "", `a\.b`},
		{`a ++ # (not a group)`, "x", `(?>a +) # (not a group)`},
		{`(?i)a`, "", `(?i)a`},
		{`(?w)x`, "", `x`},
		{`(?iw:x)`, "", `(?i:x)`},
		{`\b`, "w", uwordBoundary},
		{`[\b]`, "w", `[\b]`},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := rewritePattern(tt.pattern, ParseMatchOptions(tt.options))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := rewritePattern(`(?<open`, MatchOptions{})
	assert.ErrorIs(t, err, ErrPatternInvalid)
}

// TestEngineFind tests the facade reductions
func TestEngineFind(t *testing.T) {
	e := newTestEngine(t, "UTC")
	const pattern, subject = `(\d+)-(\d+)`, "12-34 and 56-78"

	t.Run("FirstMatch", func(t *testing.T) {
		v, err := e.FindFirstMatch(pattern, subject, "")
		require.NoError(t, err)
		assert.True(t, Equal(Text("12-34"), v))

		v, err = e.FindFirstMatch(`z`, subject, "")
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("FirstMatchRecord", func(t *testing.T) {
		v, err := e.FindFirstMatchRecord(pattern, subject, "")
		require.NoError(t, err)
		rng, ok := v.Get("foundRange")
		require.True(t, ok)
		assert.True(t, Equal(Range{Location: 0, Length: 5}.Value(), rng))

		v, err = e.FindFirstMatchRecord(`z`, subject, "")
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("Matches", func(t *testing.T) {
		v, err := e.FindMatches(pattern, subject, "")
		require.NoError(t, err)
		assert.True(t, Equal(Sequence(Text("12-34"), Text("56-78")), v))

		recs, err := e.FindMatchRecords(pattern, subject, "")
		require.NoError(t, err)
		assert.Equal(t, 2, recs.Len())
	})

	t.Run("InGroups", func(t *testing.T) {
		v, err := e.FindMatchesInGroups(pattern, subject, "", []int{2, 1})
		require.NoError(t, err)
		want := Sequence(
			Sequence(Text("34"), Text("12")),
			Sequence(Text("78"), Text("56")),
		)
		assert.True(t, Equal(want, v), "got %s", v)

		v, err = e.FindMatchesInGroups(`(a)(b)?`, "a", "", []int{1, 2})
		require.NoError(t, err)
		assert.True(t, Equal(Sequence(Sequence(Text("a"), Null())), v))

		v, err = e.FindMatchRecordsInGroups(pattern, "none", "", []int{1})
		require.NoError(t, err)
		assert.Equal(t, KindSequence, v.Kind())
		assert.Zero(t, v.Len())
	})

	t.Run("CacheUsed", func(t *testing.T) {
		e.Cache().Purge()
		_, err := e.FindMatches(`x+`, "xx", "i")
		require.NoError(t, err)
		_, err = e.FindMatches(`x+`, "xxx", "i")
		require.NoError(t, err)
		regexes, _ := e.Cache().Len()
		assert.Equal(t, 1, regexes)
	})
}
