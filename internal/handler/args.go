package handler

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrBadArg is returned when a command argument is missing or malformed.
var ErrBadArg = errors.New("bad argument")

// Args are the decoded arguments of one command.
type Args map[string]any

func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Int returns a required integer argument.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrBadArg, key)
	}
	return toInt(key, v)
}

// IntOr returns an integer argument, or def when absent.
func (a Args) IntOr(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	return toInt(key, v)
}

func toInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrBadArg, key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s=%v is not a number", ErrBadArg, key, v)
	}
}

// String returns a string argument, "" when absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a Args) StringOr(key, def string) string {
	if s, ok := a[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Bool returns a boolean argument, or def when absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s=%v is not a bool", ErrBadArg, key, v)
	}
	return b, nil
}

// Lines reads a list of strings, or one string split on newlines. Blank
// lines are dropped.
func (a Args) Lines(key string) ([]string, error) {
	var raw []string
	switch v := a[key].(type) {
	case string:
		raw = strings.Split(v, "\n")
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s has a non-string line %v", ErrBadArg, key, item)
			}
			raw = append(raw, s)
		}
	case nil:
		return nil, fmt.Errorf("%w: %s is required", ErrBadArg, key)
	default:
		return nil, fmt.Errorf("%w: %s must be a list of lines", ErrBadArg, key)
	}
	var out []string
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out, nil
}
