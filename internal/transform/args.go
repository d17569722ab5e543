package transform

import (
	"fmt"
	"strconv"
)

// Args holds the arguments of an operation as decoded from the sheet
// configuration.
type Args map[string]any

// Int returns the integer argument of the given name, or def if it is missing.
func (a Args) Int(name string, def int) (int, error) {
	value, ok := a[name]
	if !ok {
		return def, nil
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: '%s' is not an integer: %g", ErrInvalidArgument, name, v)
		}
		return int(v), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s': %w", ErrInvalidArgument, name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: '%s' has unsupported type %T", ErrInvalidArgument, name, value)
	}
}

// Float returns the number argument of the given name, or def if it is missing.
func (a Args) Float(name string, def float64) (float64, error) {
	value, ok := a[name]
	if !ok {
		return def, nil
	}

	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s': %w", ErrInvalidArgument, name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: '%s' has unsupported type %T", ErrInvalidArgument, name, value)
	}
}

// String returns the string argument of the given name, or def if it is missing.
func (a Args) String(name, def string) (string, error) {
	value, ok := a[name]
	if !ok {
		return def, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: '%s' has unsupported type %T", ErrInvalidArgument, name, value)
	}
	return s, nil
}

// Selector returns the required selector argument of the given name.
func (a Args) Selector(name string) (Selector, error) {
	value, ok := a[name]
	if !ok {
		return Selector{}, fmt.Errorf("%w: missing '%s'", ErrInvalidArgument, name)
	}
	sel, err := SelectorFrom(value)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: '%s': %w", ErrInvalidArgument, name, err)
	}
	return sel, nil
}
