// FILE: lixenwraith/bridge/scalar.go
package bridge

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDataType is the type code of untyped raw data.
const DefaultDataType = "rdat"

// ScalarConverter applies the per-category leaf rules.
type ScalarConverter struct {
	loc      *time.Location
	resolver Resolver
	logger   *slog.Logger
}

// NewScalarConverter creates a converter that emits dates in loc.
// A nil loc means time.Local; a nil logger discards.
func NewScalarConverter(loc *time.Location, resolver Resolver, logger *slog.Logger) *ScalarConverter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScalarConverter{loc: loc, resolver: resolver, logger: logger}
}

// Location returns the zone outbound dates are expressed in.
func (c *ScalarConverter) Location() *time.Location {
	return c.loc
}

// Inbound converts a host leaf to its engine form.
// A leaf that cannot convert becomes Null.
func (c *ScalarConverter) Inbound(v Value, cats CategorySet) Value {
	return c.absorb(v, Inbound, cats, "")
}

// Outbound converts an engine leaf to its host form.
// A leaf that cannot convert becomes Null.
func (c *ScalarConverter) Outbound(v Value, cats CategorySet) Value {
	return c.absorb(v, Outbound, cats, "")
}

// absorb converts a leaf and replaces a failure by Null, logging where it happened.
func (c *ScalarConverter) absorb(v Value, dir Direction, cats CategorySet, at string) Value {
	out, err := c.convert(v, dir, cats)
	if err != nil {
		c.logger.Debug("scalar conversion failed",
			"direction", dir.String(),
			"kind", v.kind.String(),
			"path", at,
			"error", err)
		return Null()
	}
	return out
}

// convert applies the rule for v's category, or passes v through.
func (c *ScalarConverter) convert(v Value, dir Direction, cats CategorySet) (Value, error) {
	cat, ok := categoryOf(v.kind, dir)
	if !ok || !cats.Has(cat) {
		return v, nil
	}

	switch cat {
	case CategoryDates:
		if dir == Inbound {
			return c.dateToTimestamp(*v.dateVal)
		}
		return c.timestampToDate(v.timeVal), nil

	case CategoryFiles:
		if dir == Inbound {
			p, err := c.resolver.Resolve(v.strVal)
			if err != nil {
				return Null(), err
			}
			return File(p), nil
		}
		p := v.strVal
		if v.kind == KindAlias {
			var err error
			if p, err = c.resolver.Resolve(v.strVal); err != nil {
				return Null(), err
			}
		}
		return Alias(URLFrom(p)), nil

	case CategoryData:
		if dir == Inbound {
			b, err := decodeHex(v.strVal)
			if err != nil {
				return Null(), err
			}
			return Value{kind: KindBytes, bytesVal: b}, nil
		}
		return Data(DefaultDataType, strings.ToUpper(hex.EncodeToString(v.bytesVal))), nil

	case CategoryReals:
		r, ok := realFromFloat(v.numVal, v.bits)
		if !ok {
			return Null(), fmt.Errorf("number %v has no decimal form", v.numVal)
		}
		return r, nil
	}
	return v, nil
}

// dateToTimestamp reads the wall clock in the date's zone, or the converter's
// zone for a floating date.
func (c *ScalarConverter) dateToTimestamp(d CalendarDate) (Value, error) {
	if !d.valid() {
		return Null(), fmt.Errorf("date fields out of range: %s", d)
	}
	return Timestamp(d.Time(c.loc)), nil
}

func (c *ScalarConverter) timestampToDate(t time.Time) Value {
	return Date(dateFromTime(t.In(c.loc)))
}

// dateFromTime splits t into wall-clock fields and offset in t's own zone.
func dateFromTime(t time.Time) CalendarDate {
	_, off := t.Zone()
	return CalendarDate{
		Year:       t.Year(),
		Month:      t.Month(),
		Day:        t.Day(),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
		Location:   t.Location(),
		Offset:     off,
		HasOffset:  true,
	}
}

// decodeHex decodes a hex payload, ignoring case and embedded spaces.
func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed hex payload: %w", err)
	}
	return b, nil
}

// realFromFloat builds a Real through the shortest decimal text that
// round-trips at the given width.
func realFromFloat(f float64, bits int) (Value, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	if bits != 32 {
		bits = 64
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, false
	}
	return Value{kind: KindReal, numVal: d, strVal: s}, true
}
