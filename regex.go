package extractors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RegexExtractor matches a regular expression. It selects the Nth match and
// returns either the whole match or one capture group. It is listable.
type RegexExtractor struct {
	pattern string
	re      *regexp.Regexp
	match   int
	group   string
	groupAt int
	err     error
}

// RegexOption configures a RegexExtractor.
type RegexOption func(*RegexExtractor)

// WithMatch selects the zero-based match occurrence.
func WithMatch(n int) RegexOption {
	return func(r *RegexExtractor) { r.match = max(n, 0) }
}

// WithGroup selects a capture group by number or name. "text", "html" and ""
// select the whole match.
func WithGroup(group string) RegexOption {
	return func(r *RegexExtractor) { r.group = group }
}

// NewRegex compiles pattern as is, so it may contain commas.
func NewRegex(pattern string, opts ...RegexOption) (*RegexExtractor, error) {
	r := &RegexExtractor{pattern: pattern}
	for _, opt := range opts {
		opt(r)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, extractionError("regex", pattern, err)
	}
	r.re = re
	if r.groupAt, err = resolveGroup(re, r.group); err != nil {
		return nil, extractionError("regex", pattern, err)
	}
	return r, nil
}

// Regex parses a "pattern[,match[,group]]" query; a compile error is returned
// by the first Extract or ExtractList call. The match and group are read from
// the right and only when the match is an integer, so `\w{1,3}` and
// `(\d+),(\d+)` stay whole patterns. NewRegex takes the pattern verbatim.
func Regex(raw string) *RegexExtractor {
	q := parseRegexQuery(raw)
	r, err := NewRegex(q.Primary, WithMatch(q.Index), WithGroup(q.Output))
	if err != nil {
		return &RegexExtractor{pattern: q.Primary, match: q.Index, group: q.Output, err: err}
	}
	return r
}

func parseRegexQuery(raw string) Query {
	q := Query{Primary: strings.TrimSpace(raw), Output: OutputText}
	items := strings.Split(raw, ",")
	n := len(items)
	if n >= 3 {
		if idx, ok := matchIndex(items[n-2], true); ok {
			q.Primary = strings.TrimSpace(strings.Join(items[:n-2], ","))
			q.Index = idx
			if group := strings.TrimSpace(items[n-1]); group != "" {
				q.Output = group
			}
			return q
		}
	}
	if n >= 2 {
		if idx, ok := matchIndex(items[n-1], false); ok {
			q.Primary = strings.TrimSpace(strings.Join(items[:n-1], ","))
			q.Index = idx
		}
	}
	return q
}

// matchIndex reads a match segment; negative values select the first match.
func matchIndex(s string, allowEmpty bool) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, allowEmpty
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return max(idx, 0), true
}

func (r *RegexExtractor) Extract(document string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	matches := r.re.FindAllStringSubmatchIndex(document, r.match+1)
	m, err := pick(matches, r.match)
	if err != nil {
		return "", extractionError("regex", r.pattern, err)
	}
	return r.value(document, m), nil
}

// ExtractList returns the selected group of every match.
func (r *RegexExtractor) ExtractList(document string) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	matches := r.re.FindAllStringSubmatchIndex(document, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, r.value(document, m))
	}
	return out, nil
}

func (r *RegexExtractor) String() string {
	return fmt.Sprintf("regex(%s,%d,%s)", r.pattern, r.match, r.group)
}

func (r *RegexExtractor) value(document string, m []int) string {
	start, end := m[2*r.groupAt], m[2*r.groupAt+1]
	if start < 0 {
		return ""
	}
	return document[start:end]
}

func resolveGroup(re *regexp.Regexp, group string) (int, error) {
	switch group {
	case "", OutputText, OutputHTML:
		return 0, nil
	}
	if n, err := strconv.Atoi(group); err == nil {
		if n < 0 || n > re.NumSubexp() {
			return 0, fmt.Errorf("group %d out of range, pattern has %d", n, re.NumSubexp())
		}
		return n, nil
	}
	if n := re.SubexpIndex(group); n >= 0 {
		return n, nil
	}
	return 0, fmt.Errorf("no group named %q", group)
}
