// FILE: lixenwraith/bridge/engine.go
package bridge

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// Engine is the entry point for conversions, pattern extraction and the
// script helpers. It is immutable after construction and safe for
// concurrent use.
type Engine struct {
	opts     Options
	loc      *time.Location
	resolver Resolver
	inbound  CategorySet
	outbound CategorySet

	cache   *Cache
	scalars *ScalarConverter
	walker  *Walker
	matcher *Matcher
	logger  *slog.Logger
}

// New creates an engine. cache may be nil to disable memoization; a nil
// logger discards.
func New(opts Options, cache *Cache, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loc, err := loadLocation(opts.TimeZone)
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver()
	scalars := NewScalarConverter(loc, resolver, logger)
	return &Engine{
		opts:     opts,
		loc:      loc,
		resolver: resolver,
		inbound:  opts.Categories(Inbound),
		outbound: opts.Categories(Outbound),
		cache:    cache,
		scalars:  scalars,
		walker:   NewWalker(scalars, opts.MaxDepth, logger),
		matcher:  NewMatcher(cache, opts.MatchTimeout, logger),
		logger:   logger,
	}, nil
}

// Default creates an engine with DefaultOptions, a fresh cache and no logging.
func Default() *Engine {
	cache, _ := NewCache(DefaultCacheSize)
	e, err := New(DefaultOptions(), cache, nil)
	if err != nil {
		panic(fmt.Sprintf("bridge: default engine: %v", err))
	}
	return e
}

// Options returns the settings the engine was built with.
func (e *Engine) Options() Options {
	return e.opts
}

// Location returns the zone used for host dates.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Resolver returns the location resolver.
func (e *Engine) Resolver() Resolver {
	return e.resolver
}

// Cache returns the injected cache, possibly nil.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Matcher returns the pattern matcher.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// categories parses a type configuration, using the engine's configured
// set when the string has no tokens.
func (e *Engine) categories(types string, dir Direction) CategorySet {
	if strings.IndexFunc(types, func(r rune) bool { return r != ',' && !unicode.IsSpace(r) }) < 0 {
		if dir == Outbound {
			return e.outbound
		}
		return e.inbound
	}
	return ParseCategories(types, dir)
}

// ============================================================
// Conversion
// ============================================================

// Convert walks v in direction dir converting the leaves in cats.
func (e *Engine) Convert(v Value, dir Direction, cats CategorySet) (Value, error) {
	return e.walker.Walk(v, dir, cats)
}

// ConvertInbound turns host values into engine values. types is a
// configuration string such as "dates, files".
func (e *Engine) ConvertInbound(v Value, types string) (Value, error) {
	return e.walker.Walk(v, Inbound, e.categories(types, Inbound))
}

// ConvertOutbound turns engine values into host values.
func (e *Engine) ConvertOutbound(v Value, types string) (Value, error) {
	return e.walker.Walk(v, Outbound, e.categories(types, Outbound))
}

// ConvertInboundInList is ConvertInbound with the result wrapped in a
// single-element sequence.
func (e *Engine) ConvertInboundInList(v Value, types string) (Value, error) {
	return inList(e.ConvertInbound(v, types))
}

// ConvertOutboundInList is ConvertOutbound with the result wrapped in a
// single-element sequence.
func (e *Engine) ConvertOutboundInList(v Value, types string) (Value, error) {
	return inList(e.ConvertOutbound(v, types))
}

func inList(v Value, err error) (Value, error) {
	if err != nil {
		return Null(), err
	}
	return Value{kind: KindSequence, items: []Value{v}}, nil
}

// ============================================================
// Pattern extraction
// ============================================================

// FindFirstMatch returns the text of the first match, or Null.
func (e *Engine) FindFirstMatch(pattern, subject, options string) (Value, error) {
	recs, ok, err := e.matcher.FindFirst(pattern, subject, ParseMatchOptions(options), nil)
	if err != nil || !ok {
		return Null(), err
	}
	return Text(*recs[0].FoundString), nil
}

// FindFirstMatchRecord returns the group 0 record of the first match, or Null.
func (e *Engine) FindFirstMatchRecord(pattern, subject, options string) (Value, error) {
	recs, ok, err := e.matcher.FindFirst(pattern, subject, ParseMatchOptions(options), nil)
	if err != nil || !ok {
		return Null(), err
	}
	return recs[0].Value(), nil
}

// FindMatches returns the text of every match.
func (e *Engine) FindMatches(pattern, subject, options string) (Value, error) {
	all, err := e.matcher.FindAll(pattern, subject, ParseMatchOptions(options), nil)
	if err != nil {
		return Null(), err
	}
	items := make([]Value, len(all))
	for i, recs := range all {
		items[i] = Text(*recs[0].FoundString)
	}
	return Value{kind: KindSequence, items: items}, nil
}

// FindMatchRecords returns the group 0 record of every match.
func (e *Engine) FindMatchRecords(pattern, subject, options string) (Value, error) {
	all, err := e.matcher.FindAll(pattern, subject, ParseMatchOptions(options), nil)
	if err != nil {
		return Null(), err
	}
	items := make([]Value, len(all))
	for i, recs := range all {
		items[i] = recs[0].Value()
	}
	return Value{kind: KindSequence, items: items}, nil
}

// FindMatchesInGroups returns, per match, the text of each requested group
// in caller order; absent groups are Null.
func (e *Engine) FindMatchesInGroups(pattern, subject, options string, groups []int) (Value, error) {
	all, err := e.matcher.FindAll(pattern, subject, ParseMatchOptions(options), groups)
	if err != nil {
		return Null(), err
	}
	items := make([]Value, len(all))
	for i, recs := range all {
		row := make([]Value, len(recs))
		for j, r := range recs {
			if r.FoundString != nil {
				row[j] = Text(*r.FoundString)
			}
		}
		items[i] = Value{kind: KindSequence, items: row}
	}
	return Value{kind: KindSequence, items: items}, nil
}

// FindMatchRecordsInGroups returns, per match, the record of each requested
// group in caller order.
func (e *Engine) FindMatchRecordsInGroups(pattern, subject, options string, groups []int) (Value, error) {
	all, err := e.matcher.FindAll(pattern, subject, ParseMatchOptions(options), groups)
	if err != nil {
		return Null(), err
	}
	items := make([]Value, len(all))
	for i, recs := range all {
		row := make([]Value, len(recs))
		for j, r := range recs {
			row[j] = r.Value()
		}
		items[i] = Value{kind: KindSequence, items: row}
	}
	return Value{kind: KindSequence, items: items}, nil
}
