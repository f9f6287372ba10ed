package extractors

import (
	"fmt"
	"strconv"
	"strings"
)

// RangeExtractor slices a document by rune offsets given as "start:end".
// Either bound may be empty (open) or negative (counted from the end); bounds
// are clamped to the document. It is not listable.
type RangeExtractor struct {
	raw        string
	start, end *int
	err        error
}

// NewRange parses a "start:end" range.
func NewRange(raw string) (*RangeExtractor, error) {
	bounds := ParseQuery(raw).Primary
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return nil, extractionError("range", bounds, fmt.Errorf("want start:end"))
	}
	r := &RangeExtractor{raw: bounds}
	var err error
	if r.start, err = parseBound(lo); err != nil {
		return nil, extractionError("range", bounds, err)
	}
	if r.end, err = parseBound(hi); err != nil {
		return nil, extractionError("range", bounds, err)
	}
	return r, nil
}

// Range is NewRange for fluent use: a parse error is returned by the first
// Extract call instead.
func Range(raw string) *RangeExtractor {
	r, err := NewRange(raw)
	if err != nil {
		return &RangeExtractor{raw: raw, err: err}
	}
	return r
}

// StringRange is an alias of Range.
func StringRange(raw string) *RangeExtractor { return Range(raw) }

func (r *RangeExtractor) Extract(document string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	runes := []rune(document)
	lo, hi := bound(r.start, 0, len(runes)), bound(r.end, len(runes), len(runes))
	if lo >= hi {
		return "", nil
	}
	return string(runes[lo:hi]), nil
}

func (r *RangeExtractor) String() string { return fmt.Sprintf("range(%s)", r.raw) }

func parseBound(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("bad bound %q", s)
	}
	return &n, nil
}

func bound(b *int, open, length int) int {
	if b == nil {
		return open
	}
	n := *b
	if n < 0 {
		n += length
	}
	return min(max(n, 0), length)
}
