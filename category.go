// FILE: lixenwraith/bridge/category.go
package bridge

import (
	"strings"
	"unicode"
)

// Direction selects the conversion flow.
type Direction uint8

const (
	Inbound  Direction = iota // host to engine
	Outbound                  // engine to host
)

// String returns "inbound" or "outbound".
func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// ParseDirection accepts "in", "inbound", "out" and "outbound".
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inbound":
		return Inbound, true
	case "out", "outbound":
		return Outbound, true
	default:
		return Inbound, false
	}
}

// Category is one class of scalar the converter may transform.
type Category uint8

const (
	CategoryDates Category = 1 << iota
	CategoryData
	CategoryFiles
	CategoryReals
)

// categoryNames lists the configuration tokens in canonical order.
var categoryNames = []struct {
	name string
	cat  Category
}{
	{"dates", CategoryDates},
	{"data", CategoryData},
	{"files", CategoryFiles},
	{"reals", CategoryReals},
}

// CategorySet is a set of enabled categories.
type CategorySet uint8

// Default category sets
const (
	DefaultInbound  = CategorySet(CategoryDates | CategoryFiles)
	DefaultOutbound = CategorySet(CategoryReals | CategoryDates | CategoryFiles)
	AllCategories   = CategorySet(CategoryDates | CategoryData | CategoryFiles | CategoryReals)
)

// DefaultCategories returns the set used when no configuration is given.
func DefaultCategories(dir Direction) CategorySet {
	if dir == Outbound {
		return DefaultOutbound
	}
	return DefaultInbound
}

// Has reports whether c is enabled.
func (s CategorySet) Has(c Category) bool {
	return s&CategorySet(c) != 0
}

// With returns the set with c added.
func (s CategorySet) With(c Category) CategorySet {
	return s | CategorySet(c)
}

// String renders the set as a configuration string.
func (s CategorySet) String() string {
	var parts []string
	for _, n := range categoryNames {
		if s.Has(n.cat) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseCategories reads a comma and/or whitespace separated list of category
// names. Matching is case-sensitive and unknown names are ignored. A string
// with no tokens selects the direction default.
func ParseCategories(config string, dir Direction) CategorySet {
	tokens := strings.FieldsFunc(config, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) == 0 {
		return DefaultCategories(dir)
	}

	var set CategorySet
	for _, tok := range tokens {
		for _, n := range categoryNames {
			if tok == n.name {
				set = set.With(n.cat)
				break
			}
		}
	}
	return set
}

// categoryOf returns the category a leaf kind belongs to in a direction.
// Each kind maps to at most one category.
func categoryOf(k Kind, dir Direction) (Category, bool) {
	if dir == Inbound {
		switch k {
		case KindDate:
			return CategoryDates, true
		case KindAlias:
			return CategoryFiles, true
		case KindData:
			return CategoryData, true
		}
		return 0, false
	}

	switch k {
	case KindTimestamp:
		return CategoryDates, true
	case KindFile, KindAlias:
		return CategoryFiles, true
	case KindBytes:
		return CategoryData, true
	case KindNumber:
		return CategoryReals, true
	}
	return 0, false
}
