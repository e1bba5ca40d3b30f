// FILE: lixenwraith/bridge/datefmt.go
package bridge

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// dateToken is one element of a compiled date pattern: a field letter
// repeated width times, or literal text.
type dateToken struct {
	letter  rune
	width   int
	literal string
}

func (t dateToken) numeric() bool {
	switch t.letter {
	case 'y', 'u', 'd', 'D', 'h', 'H', 'k', 'K', 'm', 's', 'S':
		return true
	case 'M', 'L', 'Q', 'e':
		return t.width <= 2
	}
	return false
}

// datePattern is a compiled Unicode date pattern.
type datePattern struct {
	source string
	tokens []dateToken
}

const dateLetters = "GyuQMLdDEeahHkKmsSzZXx"

var (
	monthNames = []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	quarterNames = []string{"1st quarter", "2nd quarter", "3rd quarter", "4th quarter"}
)

// compileDatePattern tokenizes pattern. Letters outside the supported set
// and unterminated quotes are errors.
func compileDatePattern(pattern string) (*datePattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrDateFormat)
	}
	runes := []rune(pattern)
	var tokens []dateToken
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, dateToken{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			if i+1 < len(runes) && runes[i+1] == '\'' {
				lit.WriteRune('\'')
				i += 2
				continue
			}
			end := i + 1
			for {
				if end >= len(runes) {
					return nil, fmt.Errorf("%w: unterminated quote in %q", ErrDateFormat, pattern)
				}
				if runes[end] == '\'' {
					if end+1 < len(runes) && runes[end+1] == '\'' {
						lit.WriteRune('\'')
						end += 2
						continue
					}
					break
				}
				lit.WriteRune(runes[end])
				end++
			}
			i = end + 1

		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if !strings.ContainsRune(dateLetters, r) {
				return nil, fmt.Errorf("%w: unsupported field %q in %q", ErrDateFormat, r, pattern)
			}
			flush()
			width := 1
			for i+width < len(runes) && runes[i+width] == r {
				width++
			}
			tokens = append(tokens, dateToken{letter: r, width: width})
			i += width

		default:
			lit.WriteRune(r)
			i++
		}
	}
	flush()
	return &datePattern{source: pattern, tokens: tokens}, nil
}

// ============================================================
// Formatting
// ============================================================

func (p *datePattern) format(t time.Time) string {
	var sb strings.Builder
	for _, tok := range p.tokens {
		if tok.letter == 0 {
			sb.WriteString(tok.literal)
			continue
		}
		sb.WriteString(formatField(tok, t))
	}
	return sb.String()
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + pad(-n, width)
	}
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// textWidth picks the abbreviated, wide or narrow form of a name
func textWidth(name string, width int) string {
	switch {
	case width == 4:
		return name
	case width == 5:
		return name[:1]
	case width == 6:
		return name[:2]
	default:
		return name[:3]
	}
}

func formatField(tok dateToken, t time.Time) string {
	year := t.Year()
	switch tok.letter {
	case 'G':
		ad := year > 0
		switch {
		case tok.width == 4 && ad:
			return "Anno Domini"
		case tok.width == 4:
			return "Before Christ"
		case tok.width == 5 && ad:
			return "A"
		case tok.width == 5:
			return "B"
		case ad:
			return "AD"
		default:
			return "BC"
		}
	case 'y':
		if year <= 0 {
			year = 1 - year
		}
		if tok.width == 2 {
			return pad(year%100, 2)
		}
		return pad(year, tok.width)
	case 'u':
		return pad(year, tok.width)
	case 'Q':
		q := (int(t.Month())-1)/3 + 1
		switch tok.width {
		case 1, 2:
			return pad(q, tok.width)
		case 3:
			return "Q" + strconv.Itoa(q)
		case 5:
			return strconv.Itoa(q)
		default:
			return quarterNames[q-1]
		}
	case 'M', 'L':
		if tok.width <= 2 {
			return pad(int(t.Month()), tok.width)
		}
		return textWidth(monthNames[t.Month()-1], tok.width)
	case 'd':
		return pad(t.Day(), tok.width)
	case 'D':
		return pad(t.YearDay(), tok.width)
	case 'E':
		return textWidth(weekdayNames[t.Weekday()], tok.width)
	case 'e':
		if tok.width <= 2 {
			return pad(int(t.Weekday())+1, tok.width)
		}
		return textWidth(weekdayNames[t.Weekday()], tok.width)
	case 'a':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, tok.width)
	case 'H':
		return pad(t.Hour(), tok.width)
	case 'k':
		h := t.Hour()
		if h == 0 {
			h = 24
		}
		return pad(h, tok.width)
	case 'K':
		return pad(t.Hour()%12, tok.width)
	case 'm':
		return pad(t.Minute(), tok.width)
	case 's':
		return pad(t.Second(), tok.width)
	case 'S':
		frac := pad(t.Nanosecond(), 9)
		if tok.width <= 9 {
			return frac[:tok.width]
		}
		return frac + strings.Repeat("0", tok.width-9)
	case 'z':
		if tok.width == 4 {
			return t.Location().String()
		}
		name, _ := t.Zone()
		return name
	case 'Z':
		_, off := t.Zone()
		switch tok.width {
		case 4:
			if off == 0 {
				return "GMT"
			}
			return "GMT" + formatOffset(off, true)
		case 5:
			if off == 0 {
				return "Z"
			}
			return formatOffset(off, true)
		default:
			return formatOffset(off, false)
		}
	case 'X', 'x':
		_, off := t.Zone()
		if tok.letter == 'X' && off == 0 {
			return "Z"
		}
		switch tok.width {
		case 1:
			s := formatOffset(off, false)
			if strings.HasSuffix(s, "00") {
				return s[:3]
			}
			return s
		case 3, 5:
			return formatOffset(off, true)
		default:
			return formatOffset(off, false)
		}
	}
	return ""
}

// formatOffset renders seconds east of UTC as +hhmm or +hh:mm
func formatOffset(off int, colon bool) string {
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	h, m := off/3600, (off%3600)/60
	if colon {
		return fmt.Sprintf("%s%02d:%02d", sign, h, m)
	}
	return fmt.Sprintf("%s%02d%02d", sign, h, m)
}

// ============================================================
// Parsing
// ============================================================

// dateFields collects parsed components; unset fields default to
// 1970-01-01 00:00:00.
type dateFields struct {
	year, month, day, yearDay   int
	hour, minute, second, nanos int
	bc, pm, hasPM, twoDigitYear bool
	hour12                      bool
	loc                         *time.Location
}

func (p *datePattern) parse(s string, loc *time.Location) (time.Time, error) {
	f := dateFields{year: 1970, month: 1, day: 1, loc: loc}
	rest := s

	for i, tok := range p.tokens {
		if tok.letter == 0 {
			if !strings.HasPrefix(rest, tok.literal) {
				return time.Time{}, fmt.Errorf("expected %q at %q", tok.literal, rest)
			}
			rest = rest[len(tok.literal):]
			continue
		}

		abutting := i+1 < len(p.tokens) && p.tokens[i+1].letter != 0 && p.tokens[i+1].numeric()
		var err error
		if tok.numeric() {
			rest, err = f.parseNumeric(tok, rest, abutting)
		} else {
			rest, err = f.parseText(tok, rest)
		}
		if err != nil {
			return time.Time{}, err
		}
	}
	if rest != "" {
		return time.Time{}, fmt.Errorf("unparsed text %q", rest)
	}
	return f.build()
}

func (f *dateFields) parseNumeric(tok dateToken, s string, abutting bool) (string, error) {
	neg := false
	if tok.letter == 'u' && strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	limit := 10
	if abutting || tok.letter == 'S' {
		limit = tok.width
	}
	if tok.letter == 'S' && !abutting {
		limit = 9
	}
	n := 0
	for n < len(s) && n < limit && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return s, fmt.Errorf("expected digits for %c at %q", tok.letter, s)
	}
	v, err := strconv.Atoi(s[:n])
	if err != nil {
		return s, err
	}
	if neg {
		v = -v
	}

	switch tok.letter {
	case 'y':
		f.year = v
		f.twoDigitYear = tok.width == 2 && n == 2
	case 'u':
		f.year = v
	case 'Q':
		// quarter carries no information beyond the month
	case 'M', 'L':
		f.month = v
	case 'd':
		f.day = v
	case 'D':
		f.yearDay = v
	case 'e':
		// weekday is derived from the date
	case 'h':
		f.hour, f.hour12 = v%12, true
	case 'K':
		f.hour, f.hour12 = v, true
	case 'H':
		f.hour = v
	case 'k':
		f.hour = v % 24
	case 'm':
		f.minute = v
	case 's':
		f.second = v
	case 'S':
		digits := s[:n]
		if len(digits) < 9 {
			digits += strings.Repeat("0", 9-len(digits))
		}
		f.nanos, _ = strconv.Atoi(digits[:9])
	}
	return s[n:], nil
}

// matchName consumes the longest name (or its three-letter form) matching
// the start of s, case-insensitively.
func matchName(s string, names []string) (int, string, bool) {
	best, bestLen := -1, 0
	for i, name := range names {
		for _, cand := range []string{name, name[:min(3, len(name))]} {
			if len(cand) > bestLen && len(s) >= len(cand) && strings.EqualFold(s[:len(cand)], cand) {
				best, bestLen = i, len(cand)
			}
		}
	}
	if best < 0 {
		return 0, s, false
	}
	return best, s[bestLen:], true
}

func (f *dateFields) parseText(tok dateToken, s string) (string, error) {
	switch tok.letter {
	case 'G':
		i, rest, ok := matchName(s, []string{"Anno Domini", "Before Christ", "AD", "BC"})
		if !ok {
			return s, fmt.Errorf("expected era at %q", s)
		}
		f.bc = i == 1 || i == 3
		return rest, nil
	case 'M', 'L':
		i, rest, ok := matchName(s, monthNames)
		if !ok {
			return s, fmt.Errorf("expected month name at %q", s)
		}
		f.month = i + 1
		return rest, nil
	case 'E', 'e':
		_, rest, ok := matchName(s, weekdayNames)
		if !ok {
			return s, fmt.Errorf("expected weekday name at %q", s)
		}
		return rest, nil
	case 'Q':
		if tok.width == 3 && len(s) >= 2 && (s[0] == 'Q' || s[0] == 'q') {
			return s[2:], nil
		}
		_, rest, ok := matchName(s, quarterNames)
		if !ok {
			return s, fmt.Errorf("expected quarter at %q", s)
		}
		return rest, nil
	case 'a':
		i, rest, ok := matchName(s, []string{"AM", "PM"})
		if !ok {
			return s, fmt.Errorf("expected AM or PM at %q", s)
		}
		f.pm, f.hasPM = i == 1, true
		return rest, nil
	case 'z':
		return f.parseZoneName(s)
	case 'Z', 'X', 'x':
		return f.parseOffset(s)
	}
	return s, fmt.Errorf("unsupported field %c", tok.letter)
}

// parseZoneName accepts GMT/UTC with an optional offset, or an IANA name
func (f *dateFields) parseZoneName(s string) (string, error) {
	for _, prefix := range []string{"GMT", "UTC"} {
		if strings.HasPrefix(s, prefix) {
			rest := s[len(prefix):]
			if rest != "" && (rest[0] == '+' || rest[0] == '-') {
				return f.parseOffset(rest)
			}
			f.loc = time.UTC
			return rest, nil
		}
	}

	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || r == '/' || r == '_')
	})
	if end < 0 {
		end = len(s)
	}
	if end == 0 {
		return s, fmt.Errorf("expected zone at %q", s)
	}
	loc, err := time.LoadLocation(s[:end])
	if err != nil {
		return s, fmt.Errorf("unknown zone %q", s[:end])
	}
	f.loc = loc
	return s[end:], nil
}

// parseOffset accepts Z, GMT, ±hh, ±hhmm and ±hh:mm
func (f *dateFields) parseOffset(s string) (string, error) {
	if strings.HasPrefix(s, "Z") {
		f.loc = time.UTC
		return s[1:], nil
	}
	s = strings.TrimPrefix(s, "GMT")
	if s == "" || (s[0] != '+' && s[0] != '-') {
		f.loc = time.UTC
		return s, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	s = s[1:]

	digits := func(n int) (int, bool) {
		if len(s) < n {
			return 0, false
		}
		v, err := strconv.Atoi(s[:n])
		if err != nil {
			return 0, false
		}
		s = s[n:]
		return v, true
	}
	h, ok := digits(2)
	if !ok {
		return s, fmt.Errorf("expected offset hours at %q", s)
	}
	m := 0
	if strings.HasPrefix(s, ":") {
		s = s[1:]
		if m, ok = digits(2); !ok {
			return s, fmt.Errorf("expected offset minutes at %q", s)
		}
	} else if len(s) >= 2 && s[0] >= '0' && s[0] <= '9' {
		m, _ = digits(2)
	}
	off := sign * (h*3600 + m*60)
	f.loc = time.FixedZone(formatOffset(off, true), off)
	return s, nil
}

func (f *dateFields) build() (time.Time, error) {
	year := f.year
	if f.twoDigitYear {
		// two-digit years fall within 80 years before and 20 after now
		now := time.Now().Year()
		base := now - 80
		year = base - base%100 + year
		if year < base {
			year += 100
		}
	}
	if f.bc {
		year = 1 - year
	}

	hour := f.hour
	if f.hasPM {
		hour %= 12
		if f.pm {
			hour += 12
		}
	}

	if f.yearDay > 0 {
		t := time.Date(year, 1, 1, hour, f.minute, f.second, f.nanos, f.loc).AddDate(0, 0, f.yearDay-1)
		if t.Year() != year {
			return time.Time{}, fmt.Errorf("day of year %d out of range", f.yearDay)
		}
		return t, nil
	}

	d := CalendarDate{
		Year: year, Month: time.Month(f.month), Day: f.day,
		Hour: hour, Minute: f.minute, Second: f.second, Nanosecond: f.nanos,
	}
	if !d.valid() {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d %02d:%02d:%02d", year, f.month, f.day, hour, f.minute, f.second)
	}
	return time.Date(year, time.Month(f.month), f.day, hour, f.minute, f.second, f.nanos, f.loc), nil
}

// ============================================================
// Engine helpers
// ============================================================

func (e *Engine) datePattern(pattern string) (*datePattern, error) {
	return e.cache.datePattern(pattern)
}

// dateTime reads a Timestamp or Date in the engine zone
func (e *Engine) dateTime(v Value) (time.Time, bool) {
	switch v.kind {
	case KindTimestamp:
		return v.timeVal.In(e.loc), true
	case KindDate:
		return v.dateVal.Time(e.loc).In(e.loc), true
	}
	return time.Time{}, false
}

// DatesFromStrings parses each Text item of list with a Unicode date
// pattern such as "yyyy-MM-dd" in the engine zone. Items that are not text
// or do not parse become Null.
func (e *Engine) DatesFromStrings(list Value, pattern string) (Value, error) {
	if list.kind != KindSequence {
		return Null(), fmt.Errorf("%w: got %s", ErrNotSequence, list.kind)
	}
	dp, err := e.datePattern(pattern)
	if err != nil {
		return Null(), err
	}

	out := make([]Value, len(list.items))
	for i, item := range list.items {
		if item.kind != KindText {
			continue
		}
		t, err := dp.parse(item.strVal, e.loc)
		if err != nil {
			e.logger.Debug("date parse failed", "index", i, "pattern", pattern, "error", err)
			continue
		}
		out[i] = Timestamp(t)
	}
	return Value{kind: KindSequence, items: out}, nil
}

// StringsFromDates formats each Timestamp or Date item of list in the
// engine zone. Other items become Null.
func (e *Engine) StringsFromDates(list Value, pattern string) (Value, error) {
	if list.kind != KindSequence {
		return Null(), fmt.Errorf("%w: got %s", ErrNotSequence, list.kind)
	}
	dp, err := e.datePattern(pattern)
	if err != nil {
		return Null(), err
	}

	out := make([]Value, len(list.items))
	for i, item := range list.items {
		if t, ok := e.dateTime(item); ok {
			out[i] = Text(dp.format(t))
		}
	}
	return Value{kind: KindSequence, items: out}, nil
}

// FormatDate formats a single Timestamp or Date.
func (e *Engine) FormatDate(v Value, pattern string) (string, error) {
	dp, err := e.datePattern(pattern)
	if err != nil {
		return "", err
	}
	t, ok := e.dateTime(v)
	if !ok {
		return "", fmt.Errorf("%w: expected timestamp or date, got %s", ErrUnsupportedType, v.kind)
	}
	return dp.format(t), nil
}

// ParseDate parses a single string into a Timestamp.
func (e *Engine) ParseDate(s, pattern string) (Value, error) {
	dp, err := e.datePattern(pattern)
	if err != nil {
		return Null(), err
	}
	t, err := dp.parse(s, e.loc)
	if err != nil {
		return Null(), fmt.Errorf("%w: %v", ErrDateFormat, err)
	}
	return Timestamp(t), nil
}

func (e *Engine) dateParts(v Value) (time.Time, error) {
	t, ok := e.dateTime(v)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: expected timestamp or date, got %s", ErrUnsupportedType, v.kind)
	}
	return t, nil
}

func era(year int) (int64, int64) {
	if year <= 0 {
		return 0, int64(1 - year)
	}
	return 1, int64(year)
}

// DateValues returns {era, year, month, day}; era is 1 for AD and 0 for BC.
func (e *Engine) DateValues(v Value) (Value, error) {
	t, err := e.dateParts(v)
	if err != nil {
		return Null(), err
	}
	g, y := era(t.Year())
	return Sequence(Int(g), Int(y), Int(int64(t.Month())), Int(int64(t.Day()))), nil
}

// ExtraDateValues returns {era, yearForWeekOfYear, weekOfYear, weekday}
// using ISO weeks, with Sunday as weekday 1.
func (e *Engine) ExtraDateValues(v Value) (Value, error) {
	t, err := e.dateParts(v)
	if err != nil {
		return Null(), err
	}
	g, _ := era(t.Year())
	isoYear, week := t.ISOWeek()
	return Sequence(Int(g), Int(int64(isoYear)), Int(int64(week)), Int(int64(t.Weekday())+1)), nil
}

// TimeValues returns {hour, minutes, seconds, milliseconds}.
func (e *Engine) TimeValues(v Value) (Value, error) {
	t, err := e.dateParts(v)
	if err != nil {
		return Null(), err
	}
	return Sequence(
		Int(int64(t.Hour())),
		Int(int64(t.Minute())),
		Int(int64(t.Second())),
		Int(int64(t.Nanosecond()/int(time.Millisecond))),
	), nil
}
