// FILE: lixenwraith/bridge/pattern.go
package bridge

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

// uwordBoundary is \b with the UAX #29 rules that keep letters joined
// across an apostrophe, period or colon, and digits across a period,
// comma or semicolon.
const uwordBoundary = `(?:\b` +
	`(?!(?<=\p{L})['’.:·]\p{L})(?!(?<=\p{L}['’.:·])\p{L})` +
	`(?!(?<=\p{Nd})[.,;'’]\p{Nd})(?!(?<=\p{Nd}[.,;'’])\p{Nd}))`

// rewriteState is the part of the rewrite scoped by groups.
type rewriteState struct {
	extended bool
	words    bool
}

type openGroup struct {
	start int
	saved rewriteState
}

// patternRewriter turns an ICU pattern into one the engine reads with the
// same meaning. Capture groups are numbered explicitly in source order,
// possessive quantifiers become atomic groups, \Q...\E spans become escaped
// literals, and the w flag switches \b and \B to uwordBoundary.
type patternRewriter struct {
	src   []rune
	pos   int
	out   []rune
	state rewriteState

	groups int
	names  map[string]int
	open   []openGroup
	atom   int // out offset of the last complete atom, -1 when none
}

// rewritePattern applies the ICU rewrite for the given options.
func rewritePattern(pattern string, opts MatchOptions) (string, error) {
	p := &patternRewriter{
		src:   []rune(pattern),
		out:   make([]rune, 0, len(pattern)+8),
		state: rewriteState{extended: opts.Extended, words: opts.UnicodeWords},
		names: make(map[string]int),
		atom:  -1,
	}
	for p.pos < len(p.src) {
		if err := p.step(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrPatternInvalid, err)
		}
	}
	return string(p.out), nil
}

func (p *patternRewriter) step() error {
	c := p.src[p.pos]
	switch {
	case c == '\\':
		p.escape()
	case c == '[':
		p.class()
	case c == '(':
		return p.openGroup()
	case c == ')':
		p.closeGroup()
	case c == '|':
		p.emit(c)
		p.pos++
		p.atom = -1
	case c == '*' || c == '+' || c == '?':
		p.quantifier(1)
	case c == '{' && quantifierLen(p.src[p.pos:]) > 0:
		p.quantifier(quantifierLen(p.src[p.pos:]))
	case p.state.extended && unicode.IsSpace(c):
		p.emit(c)
		p.pos++
	case p.state.extended && c == '#':
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.emit(p.src[p.pos])
			p.pos++
		}
	default:
		p.atom = len(p.out)
		p.emit(c)
		p.pos++
	}
	return nil
}

func (p *patternRewriter) emit(rs ...rune) {
	p.out = append(p.out, rs...)
}

func (p *patternRewriter) emitString(s string) {
	p.out = append(p.out, []rune(s)...)
}

// quantifier copies an n-rune quantifier. A trailing + wraps the quantified
// atom in an atomic group.
func (p *patternRewriter) quantifier(n int) {
	q := p.src[p.pos : p.pos+n]
	p.pos += n
	start := p.atom
	p.atom = -1

	if start >= 0 && p.pos < len(p.src) && p.src[p.pos] == '+' {
		p.pos++
		body := append([]rune(nil), p.out[start:]...)
		p.out = append(p.out[:start], []rune("(?>")...)
		p.emit(body...)
		p.emit(q...)
		p.emit(')')
		return
	}
	p.emit(q...)
	if p.pos < len(p.src) && p.src[p.pos] == '?' {
		p.emit('?')
		p.pos++
	}
}

// quantifierLen returns the length of a {n}, {n,} or {n,m} prefix of s, or 0.
func quantifierLen(s []rune) int {
	i := 1
	digits := func() int {
		n := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			n++
		}
		return n
	}
	if digits() == 0 {
		return 0
	}
	if i < len(s) && s[i] == ',' {
		i++
		digits()
	}
	if i < len(s) && s[i] == '}' {
		return i + 1
	}
	return 0
}

func (p *patternRewriter) escape() {
	start := len(p.out)
	p.atom = start
	i := p.pos + 1
	if i >= len(p.src) {
		p.emit('\\')
		p.pos++
		return
	}

	end := i + 1
	switch c := p.src[i]; c {
	case 'Q':
		p.quoted(end)
		return
	case 'b', 'B':
		if p.state.words {
			if c == 'b' {
				p.emitString(uwordBoundary)
			} else {
				p.emitString("(?!" + uwordBoundary + ")")
			}
			p.pos = end
			return
		}
	case 'k':
		if end < len(p.src) && p.src[end] == '<' {
			if gt := p.index('>', end); gt > 0 {
				if n, ok := p.names[string(p.src[end+1:gt])]; ok {
					p.emitString(`\k<` + strconv.Itoa(n) + ">")
					p.pos = gt + 1
					return
				}
				end = gt + 1
			}
		}
	case 'p', 'P', 'N':
		if end < len(p.src) && p.src[end] == '{' {
			end = p.through('}', end)
		}
	case 'x':
		if end < len(p.src) && p.src[end] == '{' {
			end = p.through('}', end)
		} else {
			end = p.span(end, 2, isHexDigit)
		}
	case 'u':
		end = p.span(end, 4, isHexDigit)
	case 'U':
		end = p.span(end, 8, isHexDigit)
	case 'c':
		if end < len(p.src) {
			end++
		}
	case '0':
		end = p.span(end, 3, func(r rune) bool { return r >= '0' && r <= '7' })
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		end = p.span(end, len(p.src), func(r rune) bool { return r >= '0' && r <= '9' })
	}
	p.emit(p.src[p.pos:end]...)
	p.pos = end
}

// quoted emits the literal span that starts at from and runs to \E or the end.
func (p *patternRewriter) quoted(from int) {
	i := from
	for i < len(p.src) {
		if p.src[i] == '\\' && i+1 < len(p.src) && p.src[i+1] == 'E' {
			p.pos = i + 2
			return
		}
		p.atom = len(p.out)
		p.emitString(regexp2.Escape(string(p.src[i])))
		i++
	}
	p.pos = i
}

// class copies a bracketed set, nested sets included.
func (p *patternRewriter) class() {
	start := len(p.out)
	i, depth := p.pos, 0
	for i < len(p.src) {
		switch p.src[i] {
		case '\\':
			i += 2
			continue
		case '[':
			depth++
			i++
			if i < len(p.src) && p.src[i] == '^' {
				i++
			}
			if i < len(p.src) && p.src[i] == ']' {
				i++
			}
			continue
		case ']':
			depth--
		}
		i++
		if depth == 0 {
			break
		}
	}
	if i > len(p.src) {
		i = len(p.src)
	}
	p.emit(p.src[p.pos:i]...)
	p.pos = i
	p.atom = start
}

func (p *patternRewriter) openGroup() error {
	start := len(p.out)
	rest := p.src[p.pos:]

	switch {
	case hasRunePrefix(rest, "(?#"):
		end := p.through(')', p.pos)
		p.emit(p.src[p.pos:end]...)
		p.pos = end
		return nil

	case hasRunePrefix(rest, "(?<") && len(rest) > 3 && rest[3] != '=' && rest[3] != '!':
		gt := p.index('>', p.pos+3)
		if gt < 0 {
			return fmt.Errorf("unterminated group name at offset %d", p.pos)
		}
		name := string(p.src[p.pos+3 : gt])
		if _, dup := p.names[name]; dup {
			return fmt.Errorf("duplicate group name '%s'", name)
		}
		p.groups++
		p.names[name] = p.groups
		p.emitString("(?<" + strconv.Itoa(p.groups) + ">")
		p.pos = gt + 1

	case hasRunePrefix(rest, "(?"):
		if p.flags() {
			return nil
		}
		p.emitString("(?")
		p.pos += 2

	default:
		p.groups++
		p.emitString("(?<" + strconv.Itoa(p.groups) + ">")
		p.pos++
	}
	p.open = append(p.open, openGroup{start: start, saved: p.state})
	p.atom = -1
	return nil
}

// flags handles (?imsxw-imsxw) and (?imsxw-imsxw: at p.pos. The w flag is
// applied here and removed from the copied text. It reports false when the
// group is not a flag group.
func (p *patternRewriter) flags() bool {
	j := p.pos + 2
	for j < len(p.src) && strings.ContainsRune("imsxw-", p.src[j]) {
		j++
	}
	if j == p.pos+2 || j >= len(p.src) || (p.src[j] != ')' && p.src[j] != ':') {
		return false
	}

	next := p.state
	var kept strings.Builder
	on := true
	for _, c := range p.src[p.pos+2 : j] {
		switch c {
		case '-':
			on = false
			kept.WriteRune(c)
			continue
		case 'x':
			next.extended = on
		case 'w':
			next.words = on
			continue
		}
		kept.WriteRune(c)
	}
	letters := strings.TrimSuffix(kept.String(), "-")

	if p.src[j] == ')' {
		// applies to the rest of the enclosing group
		if letters != "" {
			p.emitString("(?" + letters + ")")
		}
		p.state = next
		p.pos = j + 1
		p.atom = -1
		return true
	}
	p.open = append(p.open, openGroup{start: len(p.out), saved: p.state})
	p.emitString("(?" + letters + ":")
	p.state = next
	p.pos = j + 1
	p.atom = -1
	return true
}

func (p *patternRewriter) closeGroup() {
	p.emit(')')
	p.pos++
	if len(p.open) == 0 {
		p.atom = -1
		return
	}
	g := p.open[len(p.open)-1]
	p.open = p.open[:len(p.open)-1]
	p.state = g.saved
	p.atom = g.start
}

// index returns the offset of r at or after from, or -1.
func (p *patternRewriter) index(r rune, from int) int {
	for i := from; i < len(p.src); i++ {
		if p.src[i] == r {
			return i
		}
	}
	return -1
}

// through returns the offset just past r at or after from, or the end.
func (p *patternRewriter) through(r rune, from int) int {
	if i := p.index(r, from); i >= 0 {
		return i + 1
	}
	return len(p.src)
}

// span returns the offset past at most limit runes from from that satisfy ok.
func (p *patternRewriter) span(from, limit int, ok func(rune) bool) int {
	i := from
	for i < len(p.src) && i-from < limit && ok(p.src[i]) {
		i++
	}
	return i
}

func hasRunePrefix(s []rune, prefix string) bool {
	pr := []rune(prefix)
	if len(s) < len(pr) {
		return false
	}
	for i, r := range pr {
		if s[i] != r {
			return false
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
