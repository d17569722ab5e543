package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelector is returned for selector expressions that can not be parsed.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector selects event indices of a score. It is a union of single
// indices and half open ranges, negative values count from the end.
type Selector struct {
	items []selectorItem
}

type selectorItem struct {
	start, end       int
	hasStart, hasEnd bool
	isRange          bool
}

// ParseSelector parses a comma separated selector expression like
// "3", "-1", "2:5", "4:", ":3" or "0,2,-3:".
func ParseSelector(expr string) (Selector, error) {
	var sel Selector
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Selector{}, fmt.Errorf("%w: empty item in '%s'", ErrInvalidSelector, expr)
		}

		item, err := parseSelectorItem(part)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: '%s': %w", ErrInvalidSelector, expr, err)
		}
		sel.items = append(sel.items, item)
	}
	return sel, nil
}

// SelectorFrom converts a configuration value into a selector. Supported
// are integers, selector strings and lists of both.
func SelectorFrom(value any) (Selector, error) {
	switch v := value.(type) {
	case int:
		return Index(v), nil
	case string:
		return ParseSelector(v)
	case []any:
		var sel Selector
		for _, elem := range v {
			s, err := SelectorFrom(elem)
			if err != nil {
				return Selector{}, err
			}
			sel.items = append(sel.items, s.items...)
		}
		return sel, nil
	default:
		return Selector{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidSelector, value)
	}
}

// Index returns a selector for a single index.
func Index(i int) Selector {
	return Selector{items: []selectorItem{{start: i, hasStart: true}}}
}

// Range returns a selector for the half open range [start, end).
func Range(start, end int) Selector {
	return Selector{items: []selectorItem{{
		start: start, end: end,
		hasStart: true, hasEnd: true,
		isRange: true,
	}}}
}

func parseSelectorItem(part string) (selectorItem, error) {
	before, after, isRange := strings.Cut(part, ":")
	if !isRange {
		i, err := strconv.Atoi(part)
		if err != nil {
			return selectorItem{}, fmt.Errorf("parsing index: %w", err)
		}
		return selectorItem{start: i, hasStart: true}, nil
	}

	item := selectorItem{isRange: true}
	if before = strings.TrimSpace(before); before != "" {
		i, err := strconv.Atoi(before)
		if err != nil {
			return selectorItem{}, fmt.Errorf("parsing range start: %w", err)
		}
		item.start = i
		item.hasStart = true
	}
	if after = strings.TrimSpace(after); after != "" {
		i, err := strconv.Atoi(after)
		if err != nil {
			return selectorItem{}, fmt.Errorf("parsing range end: %w", err)
		}
		item.end = i
		item.hasEnd = true
	}
	return item, nil
}

// Mask returns for a score of length n which indices are selected.
func (s Selector) Mask(n int) []bool {
	mask := make([]bool, n)
	for _, item := range s.items {
		if !item.isRange {
			if i, ok := resolveIndex(item.start, n); ok {
				mask[i] = true
			}
			continue
		}

		start, end := 0, n
		if item.hasStart {
			start = clampIndex(item.start, n)
		}
		if item.hasEnd {
			end = clampIndex(item.end, n)
		}
		for i := start; i < end; i++ {
			mask[i] = true
		}
	}
	return mask
}

// IsEmpty returns whether the selector has no items.
func (s Selector) IsEmpty() bool {
	return len(s.items) == 0
}

func resolveIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// clampIndex resolves a range bound the way slicing does.
func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}
