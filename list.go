// FILE: lixenwraith/bridge/list.go
package bridge

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// seq returns the items of a Sequence without copying.
func seq(list Value) ([]Value, error) {
	if list.kind != KindSequence {
		return nil, fmt.Errorf("%w: got %s", ErrNotSequence, list.kind)
	}
	return list.items, nil
}

func sequenceOf(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, items: items}
}

// rows returns list as a list of lists.
func rows(list Value) ([][]Value, error) {
	items, err := seq(list)
	if err != nil {
		return nil, err
	}
	out := make([][]Value, len(items))
	for i, item := range items {
		if item.kind != KindSequence {
			return nil, fmt.Errorf("%w: item %d is %s", ErrNotSequence, i, item.kind)
		}
		out[i] = item.items
	}
	return out, nil
}

// IsBlank reports whether v is Null, empty text, an empty sequence, or a
// sequence holding only blanks.
func IsBlank(v Value) bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return v.strVal == ""
	case KindSequence:
		for _, item := range v.items {
			if !IsBlank(item) {
				return false
			}
		}
		return true
	}
	return false
}

// ============================================================
// Shape
// ============================================================

// Flatten splices nested sequences one level: {{1, 2}, {3, {4}}} gives
// {1, 2, 3, {4}}.
func Flatten(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, 0, len(items))
	for _, item := range items {
		if item.kind == KindSequence {
			out = append(out, item.items...)
			continue
		}
		out = append(out, item)
	}
	return sequenceOf(out), nil
}

// FullyFlatten splices nested sequences at every level.
func FullyFlatten(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, 0, len(items))
	var walk func([]Value, int) error
	walk = func(items []Value, depth int) error {
		if depth > DefaultMaxDepth {
			return ErrDepthExceeded
		}
		for _, item := range items {
			if item.kind == KindSequence {
				if err := walk(item.items, depth+1); err != nil {
					return err
				}
				continue
			}
			out = append(out, item)
		}
		return nil
	}
	if err := walk(items, 0); err != nil {
		return Null(), err
	}
	return sequenceOf(out), nil
}

// DeleteBlanks removes every blank item.
func DeleteBlanks(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, 0, len(items))
	for _, item := range items {
		if !IsBlank(item) {
			out = append(out, item)
		}
	}
	return sequenceOf(out), nil
}

// TrimTrailingBlanks removes blank items from the end.
func TrimTrailingBlanks(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	end := len(items)
	for end > 0 && IsBlank(items[end-1]) {
		end--
	}
	return sequenceOf(slices.Clone(items[:end])), nil
}

// TrimBlanks removes blank items from both ends.
func TrimBlanks(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	start, end := 0, len(items)
	for start < end && IsBlank(items[start]) {
		start++
	}
	for end > start && IsBlank(items[end-1]) {
		end--
	}
	return sequenceOf(slices.Clone(items[start:end])), nil
}

// ReplaceNulls replaces Null items, including those in nested sequences,
// with with.
func ReplaceNulls(list Value, with Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	var replace func([]Value, int) ([]Value, error)
	replace = func(items []Value, depth int) ([]Value, error) {
		if depth > DefaultMaxDepth {
			return nil, ErrDepthExceeded
		}
		out := make([]Value, len(items))
		for i, item := range items {
			switch item.kind {
			case KindNull:
				out[i] = with
			case KindSequence:
				nested, err := replace(item.items, depth+1)
				if err != nil {
					return nil, err
				}
				out[i] = sequenceOf(nested)
			default:
				out[i] = item
			}
		}
		return out, nil
	}
	out, err := replace(items, 0)
	if err != nil {
		return Null(), err
	}
	return sequenceOf(out), nil
}

// PadSubarrays pads every row of a list of lists with pad up to the length
// of the longest row.
func PadSubarrays(list Value, pad Value) (Value, error) {
	rs, err := rows(list)
	if err != nil {
		return Null(), err
	}
	width := 0
	for _, r := range rs {
		width = max(width, len(r))
	}
	out := make([]Value, len(rs))
	for i, r := range rs {
		row := make([]Value, width)
		copy(row, r)
		for j := len(r); j < width; j++ {
			row[j] = pad
		}
		out[i] = sequenceOf(row)
	}
	return sequenceOf(out), nil
}

// ColsToRows transposes a list of equal-length lists.
func ColsToRows(list Value) (Value, error) {
	rs, err := rows(list)
	if err != nil {
		return Null(), err
	}
	if len(rs) == 0 {
		return sequenceOf(nil), nil
	}
	width := len(rs[0])
	for i, r := range rs {
		if len(r) != width {
			return Null(), fmt.Errorf("%w: row %d has %d items, want %d", ErrRaggedRows, i, len(r), width)
		}
	}
	out := make([]Value, width)
	for j := 0; j < width; j++ {
		col := make([]Value, len(rs))
		for i := range rs {
			col[i] = rs[i][j]
		}
		out[j] = sequenceOf(col)
	}
	return sequenceOf(out), nil
}

// GroupedBy splits list into consecutive sublists of n items; the last may
// be shorter.
func GroupedBy(list Value, n int) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if n <= 0 {
		return Null(), fmt.Errorf("%w: group size %d", ErrIndexOutOfRange, n)
	}
	out := make([]Value, 0, (len(items)+n-1)/n)
	for chunk := range slices.Chunk(items, n) {
		out = append(out, sequenceOf(slices.Clone(chunk)))
	}
	return sequenceOf(out), nil
}

// InsertItems inserts items at index at. A sequence is spliced in item by
// item; anything else is inserted as one item.
func InsertItems(list Value, items Value, at int) (Value, error) {
	cur, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if at < 0 || at > len(cur) {
		return Null(), fmt.Errorf("%w: insert at %d in %d items", ErrIndexOutOfRange, at, len(cur))
	}
	ins := []Value{items}
	if items.kind == KindSequence {
		ins = items.items
	}
	return sequenceOf(slices.Insert(slices.Clone(cur), at, ins...)), nil
}

// SubarraysWithItems inserts the i'th item of items into the i'th row of a
// list of lists at index at.
func SubarraysWithItems(list Value, items Value, at int) (Value, error) {
	rs, err := rows(list)
	if err != nil {
		return Null(), err
	}
	ins, err := seq(items)
	if err != nil {
		return Null(), err
	}
	if len(ins) != len(rs) {
		return Null(), fmt.Errorf("%w: %d items for %d rows", ErrRaggedRows, len(ins), len(rs))
	}
	out := make([]Value, len(rs))
	for i, r := range rs {
		if at < 0 || at > len(r) {
			return Null(), fmt.Errorf("%w: insert at %d in row %d of %d items", ErrIndexOutOfRange, at, i, len(r))
		}
		out[i] = sequenceOf(slices.Insert(slices.Clone(r), at, ins[i]))
	}
	return sequenceOf(out), nil
}

// MoveItem moves the item at from so that it ends up at index to.
func MoveItem(list Value, from, to int) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return Null(), fmt.Errorf("%w: move %d to %d in %d items", ErrIndexOutOfRange, from, to, len(items))
	}
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return sequenceOf(slices.Insert(out, to, item)), nil
}

// ============================================================
// Lookup
// ============================================================

// IndexesOf returns the indexes of items equal to item, or of the items not
// equal to it when invert is set.
func IndexesOf(list Value, item Value, invert bool) (Value, error) {
	return IndexesOfItems(list, Sequence(item), invert)
}

// IndexesOfItems returns the indexes of items equal to any of targets, or
// of the remaining items when invert is set.
func IndexesOfItems(list Value, targets Value, invert bool) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	want, err := seq(targets)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, 0)
	for i, item := range items {
		found := slices.ContainsFunc(want, func(w Value) bool { return Equal(item, w) })
		if found != invert {
			out = append(out, Int(int64(i)))
		}
	}
	return sequenceOf(out), nil
}

// AsMappings turns each row of a list of lists into a Mapping keyed by
// labels in order.
func AsMappings(list Value, labels []string) (Value, error) {
	rs, err := rows(list)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, len(rs))
	for i, r := range rs {
		if len(r) != len(labels) {
			return Null(), fmt.Errorf("%w: row %d has %d items for %d labels", ErrRaggedRows, i, len(r), len(labels))
		}
		entries := make([]Entry, len(r))
		for j, item := range r {
			entries[j] = Entry{Key: labels[j], Value: item}
		}
		out[i] = Mapping(entries...)
	}
	return sequenceOf(out), nil
}

// FromMappings turns a list of Mappings into a list of lists ordered by
// keys. With no keys, the keys of the first mapping are used, sorted
// case-insensitively. Missing keys give Null. The keys used are returned.
func FromMappings(list Value, keys []string) (Value, []string, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), nil, err
	}
	for i, item := range items {
		if item.kind != KindMapping {
			return Null(), nil, fmt.Errorf("%w: item %d is %s, want mapping", ErrUnsupportedType, i, item.kind)
		}
	}
	if len(keys) == 0 && len(items) > 0 {
		keys = items[0].Keys()
		sort.SliceStable(keys, func(i, j int) bool {
			return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
		})
	}

	out := make([]Value, len(items))
	for i, item := range items {
		row := make([]Value, len(keys))
		for j, k := range keys {
			row[j], _ = item.Get(k)
		}
		out[i] = sequenceOf(row)
	}
	return sequenceOf(out), keys, nil
}

// ============================================================
// Numbers and text
// ============================================================

// numeric reads Int, Real and Number values.
func numeric(v Value) (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.intVal), true
	case KindReal, KindNumber:
		return v.numVal, true
	}
	return 0, false
}

// SumMaxMin returns {sum, max, min}. All-integer lists give integers;
// otherwise the results are reals. An empty list gives {0, Null, Null}.
func SumMaxMin(list Value) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if len(items) == 0 {
		return Sequence(Int(0), Null(), Null()), nil
	}

	allInts := true
	var isum, imax, imin int64 = 0, math.MinInt64, math.MaxInt64
	fsum, fmax, fmin := 0.0, math.Inf(-1), math.Inf(1)
	for i, item := range items {
		f, ok := numeric(item)
		if !ok {
			return Null(), fmt.Errorf("%w: item %d is %s, want number", ErrUnsupportedType, i, item.kind)
		}
		if item.kind == KindInt {
			isum += item.intVal
			imax = max(imax, item.intVal)
			imin = min(imin, item.intVal)
		} else {
			allInts = false
		}
		fsum += f
		fmax = max(fmax, f)
		fmin = min(fmin, f)
	}
	if allInts {
		return Sequence(Int(isum), Int(imax), Int(imin)), nil
	}
	return Sequence(Real(fsum), Real(fmax), Real(fmin)), nil
}

// AddInteger adds n to every integer item.
func AddInteger(list Value, n int64) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	out := make([]Value, len(items))
	for i, item := range items {
		if item.kind != KindInt {
			return Null(), fmt.Errorf("%w: item %d is %s, want integer", ErrUnsupportedType, i, item.kind)
		}
		out[i] = Int(item.intVal + n)
	}
	return sequenceOf(out), nil
}

// WithPattern numbers a pattern from start to end inclusive, replacing
// every "%@" with the number zero-padded to minDigits. Counting runs down
// when end is below start.
func WithPattern(pattern string, start, end, minDigits int) Value {
	step := 1
	if end < start {
		step = -1
	}
	out := make([]Value, 0, (end-start)*step+1)
	for n := start; ; n += step {
		out = append(out, Text(strings.ReplaceAll(pattern, "%@", pad(n, minDigits))))
		if n == end {
			break
		}
	}
	return sequenceOf(out)
}

// MergeTextAtIndexes joins the text items at indexes, in the order given,
// with sep. The result takes the place of the lowest index and the other
// merged items are removed. Empty strings are skipped.
func MergeTextAtIndexes(list Value, indexes []int, sep string) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if len(indexes) == 0 {
		return sequenceOf(slices.Clone(items)), nil
	}

	parts := make([]string, 0, len(indexes))
	drop := make(map[int]bool, len(indexes))
	first := indexes[0]
	for _, idx := range indexes {
		if idx < 0 || idx >= len(items) {
			return Null(), fmt.Errorf("%w: index %d in %d items", ErrIndexOutOfRange, idx, len(items))
		}
		item := items[idx]
		if item.kind != KindText {
			return Null(), fmt.Errorf("%w: item %d is %s, want text", ErrUnsupportedType, idx, item.kind)
		}
		if item.strVal != "" {
			parts = append(parts, item.strVal)
		}
		drop[idx] = true
		first = min(first, idx)
	}

	out := make([]Value, 0, len(items)-len(drop)+1)
	for i, item := range items {
		switch {
		case i == first:
			out = append(out, Text(strings.Join(parts, sep)))
		case drop[i]:
		default:
			out = append(out, item)
		}
	}
	return sequenceOf(out), nil
}

// ============================================================
// Ordering
// ============================================================

// Order is the result of comparing two values.
type Order int

const (
	OrderAscending  Order = -1
	OrderSame       Order = 0
	OrderDescending Order = 1
)

// Comparator orders two values.
type Comparator func(a, b Value) Order

func orderOf(c int) Order {
	switch {
	case c < 0:
		return OrderAscending
	case c > 0:
		return OrderDescending
	}
	return OrderSame
}

// kindRank groups kinds for mixed comparisons; numbers share a rank.
func kindRank(k Kind) int {
	switch k {
	case KindInt, KindReal, KindNumber:
		return int(KindInt)
	case KindDate:
		return int(KindTimestamp)
	}
	return int(k)
}

// Compare gives the natural order: Null first, then by kind, numbers by
// value across Int, Real and Number, text by code point, instants by time
// and containers item by item.
func Compare(a, b Value) Order {
	if ra, rb := kindRank(a.kind), kindRank(b.kind); ra != rb {
		return orderOf(ra - rb)
	}
	switch a.kind {
	case KindNull:
		return OrderSame
	case KindBool:
		switch {
		case a.boolVal == b.boolVal:
			return OrderSame
		case b.boolVal:
			return OrderAscending
		}
		return OrderDescending
	case KindInt, KindReal, KindNumber:
		if a.kind == KindInt && b.kind == KindInt {
			return orderOf(cmpInt(a.intVal, b.intVal))
		}
		fa, _ := numeric(a)
		fb, _ := numeric(b)
		return orderOf(cmpFloat(fa, fb))
	case KindText, KindFile, KindAlias:
		return orderOf(strings.Compare(a.strVal, b.strVal))
	case KindBytes:
		return orderOf(bytes.Compare(a.bytesVal, b.bytesVal))
	case KindData:
		if c := strings.Compare(a.code, b.code); c != 0 {
			return orderOf(c)
		}
		return orderOf(strings.Compare(a.strVal, b.strVal))
	case KindTimestamp, KindDate:
		return orderOf(instant(a).Compare(instant(b)))
	case KindSequence:
		for i := 0; i < len(a.items) && i < len(b.items); i++ {
			if o := Compare(a.items[i], b.items[i]); o != OrderSame {
				return o
			}
		}
		return orderOf(len(a.items) - len(b.items))
	case KindMapping:
		for i := 0; i < len(a.entries) && i < len(b.entries); i++ {
			if c := strings.Compare(a.entries[i].Key, b.entries[i].Key); c != 0 {
				return orderOf(c)
			}
			if o := Compare(a.entries[i].Value, b.entries[i].Value); o != OrderSame {
				return o
			}
		}
		return orderOf(len(a.entries) - len(b.entries))
	}
	return OrderSame
}

// instant places a Timestamp or Date on the time line; floating dates are
// read in UTC.
func instant(v Value) time.Time {
	if v.kind == KindDate {
		d := *v.dateVal
		loc := d.Location
		if loc == nil {
			loc = time.UTC
		}
		return time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, loc)
	}
	return v.timeVal
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortWith sorts list with cmp; stable keeps equal items in input order.
func SortWith(list Value, cmp Comparator, stable bool) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	if cmp == nil {
		cmp = Compare
	}
	out := slices.Clone(items)
	fn := func(a, b Value) int { return int(cmp(a, b)) }
	if stable {
		slices.SortStableFunc(out, fn)
	} else {
		slices.SortFunc(out, fn)
	}
	return sequenceOf(out), nil
}

// Sort type names accepted by SortByIndexes.
const (
	SortCompare                  = "compare:"
	SortCaseInsensitive          = "caseInsensitiveCompare:"
	SortLocalized                = "localizedCompare:"
	SortLocalizedCaseInsensitive = "localizedCaseInsensitiveCompare:"
	SortLocalizedStandard        = "localizedStandardCompare:"
)

// comparatorFor builds the comparator for a sort type. Text pairs use the
// named comparison; other pairs fall back to Compare.
func comparatorFor(sortType string) (Comparator, error) {
	var text func(a, b string) int
	switch sortType {
	case "", SortCompare:
		return Compare, nil
	case SortCaseInsensitive:
		text = func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }
	case SortLocalized:
		text = collate.New(language.English).CompareString
	case SortLocalizedCaseInsensitive:
		text = collate.New(language.English, collate.IgnoreCase).CompareString
	case SortLocalizedStandard:
		text = collate.New(language.English, collate.IgnoreCase, collate.Numeric).CompareString
	default:
		return nil, fmt.Errorf("%w: sort type %q", ErrUnsupportedType, sortType)
	}
	return func(a, b Value) Order {
		if a.kind == KindText && b.kind == KindText {
			return orderOf(text(a.strVal, b.strVal))
		}
		return Compare(a, b)
	}, nil
}

// SortByIndexes sorts a list of lists by the items at indexes, the first
// index deciding and later ones breaking ties. ascending and sortTypes
// match indexes; a shorter list repeats its last entry and an empty one
// means ascending "compare:" throughout.
func SortByIndexes(list Value, indexes []int, ascending []bool, sortTypes []string) (Value, error) {
	rs, err := rows(list)
	if err != nil {
		return Null(), err
	}
	for i, r := range rs {
		for _, idx := range indexes {
			if idx < 0 || idx >= len(r) {
				return Null(), fmt.Errorf("%w: sort index %d in row %d of %d items", ErrIndexOutOfRange, idx, i, len(r))
			}
		}
	}

	cmps := make([]Comparator, len(indexes))
	asc := make([]bool, len(indexes))
	for i := range indexes {
		asc[i] = true
		if len(ascending) > 0 {
			asc[i] = ascending[min(i, len(ascending)-1)]
		}
		st := SortCompare
		if len(sortTypes) > 0 {
			st = sortTypes[min(i, len(sortTypes)-1)]
		}
		if cmps[i], err = comparatorFor(st); err != nil {
			return Null(), err
		}
	}

	out := slices.Clone(list.items)
	slices.SortStableFunc(out, func(a, b Value) int {
		for i, idx := range indexes {
			o := cmps[i](a.items[idx], b.items[idx])
			if !asc[i] {
				o = -o
			}
			if o != OrderSame {
				return int(o)
			}
		}
		return 0
	})
	return sequenceOf(out), nil
}

// SortByKeys sorts a list of Mappings by the values at keys, in order.
// Items missing a key sort last for that key.
func SortByKeys(list Value, keys []string) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b Value) int {
		for _, k := range keys {
			va, okA := a.Get(k)
			vb, okB := b.Get(k)
			switch {
			case okA && !okB:
				return -1
			case !okA && okB:
				return 1
			case okA && okB:
				if o := Compare(va, vb); o != OrderSame {
					return int(o)
				}
			}
		}
		return 0
	})
	return sequenceOf(out), nil
}

// SplitByKey groups a list of Mappings into sublists by the value at key,
// in order of first appearance. Items without the key form the last group.
// Each group is then sorted by sortKeys when given.
func SplitByKey(list Value, key string, sortKeys []string) (Value, error) {
	items, err := seq(list)
	if err != nil {
		return Null(), err
	}

	var groupKeys []Value
	groups := make(map[int][]Value)
	var missing []Value
	for _, item := range items {
		v, ok := item.Get(key)
		if !ok {
			missing = append(missing, item)
			continue
		}
		idx := slices.IndexFunc(groupKeys, func(k Value) bool { return Equal(k, v) })
		if idx < 0 {
			idx = len(groupKeys)
			groupKeys = append(groupKeys, v)
		}
		groups[idx] = append(groups[idx], item)
	}

	out := make([]Value, 0, len(groupKeys)+1)
	add := func(g []Value) error {
		group := sequenceOf(g)
		if len(sortKeys) > 0 {
			var err error
			if group, err = SortByKeys(group, sortKeys); err != nil {
				return err
			}
		}
		out = append(out, group)
		return nil
	}
	for i := range groupKeys {
		if err := add(groups[i]); err != nil {
			return Null(), err
		}
	}
	if len(missing) > 0 {
		if err := add(missing); err != nil {
			return Null(), err
		}
	}
	return sequenceOf(out), nil
}

// Indexes converts a list of integers to ints.
func Indexes(list Value) ([]int, error) {
	items, err := seq(list)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, err := CoerceInt(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = int(n)
	}
	return out, nil
}
