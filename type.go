// FILE: lixenwraith/bridge/type.go
package bridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CoerceText converts a scalar to text the way a script's "as text" does.
// Null gives "".
func CoerceText(v Value) (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindText, KindFile, KindAlias:
		return v.strVal, nil
	case KindBool:
		return strconv.FormatBool(v.boolVal), nil
	case KindInt:
		return strconv.FormatInt(v.intVal, 10), nil
	case KindReal:
		return v.strVal, nil
	case KindNumber:
		return strconv.FormatFloat(v.numVal, 'g', -1, v.bits), nil
	case KindTimestamp:
		return v.timeVal.Format(time.RFC3339Nano), nil
	case KindDate:
		return v.dateVal.String(), nil
	case KindBytes:
		return string(v.bytesVal), nil
	}
	return "", fmt.Errorf("%w: cannot convert %s to text", ErrUnsupportedType, v.kind)
}

// CoerceInt converts numbers, numeric text and booleans to an integer.
// Reals must be integral.
func CoerceInt(v Value) (int64, error) {
	switch v.kind {
	case KindInt:
		return v.intVal, nil
	case KindReal, KindNumber:
		f := v.numVal
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrUnsupportedType, f)
		}
		return int64(f), nil
	case KindText:
		s := strings.TrimSpace(v.strVal)
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return i, nil
		}
		r, err := ParseReal(s)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot convert %q to integer", ErrUnsupportedType, v.strVal)
		}
		return CoerceInt(r)
	case KindBool:
		if v.boolVal {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: cannot convert %s to integer", ErrUnsupportedType, v.kind)
}

// CoerceReal converts numbers, numeric text and booleans to a float.
func CoerceReal(v Value) (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.intVal), nil
	case KindReal, KindNumber:
		return v.numVal, nil
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.strVal), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: cannot convert %q to real", ErrUnsupportedType, v.strVal)
		}
		return f, nil
	case KindBool:
		if v.boolVal {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: cannot convert %s to real", ErrUnsupportedType, v.kind)
}

// CoerceBool converts booleans, "true"/"false" style text and numbers
// (non-zero is true).
func CoerceBool(v Value) (bool, error) {
	switch v.kind {
	case KindBool:
		return v.boolVal, nil
	case KindText:
		switch strings.ToLower(strings.TrimSpace(v.strVal)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: cannot convert %q to boolean", ErrUnsupportedType, v.strVal)
	case KindInt:
		return v.intVal != 0, nil
	case KindReal, KindNumber:
		return v.numVal != 0, nil
	}
	return false, fmt.Errorf("%w: cannot convert %s to boolean", ErrUnsupportedType, v.kind)
}

// ============================================================
// Typed settings access
// ============================================================

// setting returns the effective value at path as a Value.
func (s *Settings) setting(path string) (Value, error) {
	raw, found := s.Get(path)
	if !found {
		return Null(), fmt.Errorf("path not registered: %s", path)
	}
	if st, ok := raw.(fmt.Stringer); ok {
		return Text(st.String()), nil
	}
	v, err := FromNative(raw)
	if err != nil {
		return Null(), fmt.Errorf("value at %s: %w", path, err)
	}
	return v, nil
}

// String returns the value at path as text.
func (s *Settings) String(path string) (string, error) {
	v, err := s.setting(path)
	if err != nil {
		return "", err
	}
	return CoerceText(v)
}

// Int64 returns the value at path as an integer.
func (s *Settings) Int64(path string) (int64, error) {
	v, err := s.setting(path)
	if err != nil {
		return 0, err
	}
	n, err := CoerceInt(v)
	if err != nil {
		return 0, fmt.Errorf("value at %s: %w", path, err)
	}
	return n, nil
}

// Bool returns the value at path as a boolean.
func (s *Settings) Bool(path string) (bool, error) {
	v, err := s.setting(path)
	if err != nil {
		return false, err
	}
	b, err := CoerceBool(v)
	if err != nil {
		return false, fmt.Errorf("value at %s: %w", path, err)
	}
	return b, nil
}

// Float64 returns the value at path as a float.
func (s *Settings) Float64(path string) (float64, error) {
	v, err := s.setting(path)
	if err != nil {
		return 0, err
	}
	f, err := CoerceReal(v)
	if err != nil {
		return 0, fmt.Errorf("value at %s: %w", path, err)
	}
	return f, nil
}
