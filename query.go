package extractors

import (
	"strconv"
	"strings"
)

// Output modes understood by the markup extractors. Any other mode names an
// attribute (or, for regular expressions, a capture group).
const (
	OutputText = "text"
	OutputHTML = "html"
)

// Query is the parsed form of a compact extractor configuration string.
type Query struct {
	Primary string // selector, path, pattern or range
	Index   int    // zero-based match to select
	Output  string // "text", "html" or an attribute/group name
}

// ParseQuery splits a configuration string of the form
// "primaryQuery[,index[,outputMode]]".
//
//   - "li"            → Primary "li", Index 0, Output "text"
//   - "a,2,href"      → Primary "a", Index 2, Output "href"
//   - "p,,html"       → Primary "p", Index 0, Output "html"
//   - "p,x"           → non-numeric index falls back to 0
//
// Segments past the third are ignored. Regular expressions, which may contain
// commas, are split from the right by Regex instead.
func ParseQuery(raw string) Query {
	q := Query{Output: OutputText}
	items := strings.Split(raw, ",")
	q.Primary = strings.TrimSpace(items[0])
	if len(items) > 1 {
		if idx, err := strconv.Atoi(strings.TrimSpace(items[1])); err == nil && idx >= 0 {
			q.Index = idx
		}
	}
	if len(items) > 2 {
		if mode := strings.TrimSpace(items[2]); mode != "" {
			q.Output = mode
		}
	}
	return q
}

func (q Query) String() string {
	return q.Primary + "," + strconv.Itoa(q.Index) + "," + q.Output
}

// pick returns items[q.Index] or ErrNoMatch.
func pick[E any](items []E, index int) (E, error) {
	var zero E
	if index < 0 || index >= len(items) {
		return zero, ErrNoMatch
	}
	return items[index], nil
}
