package extractors

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// SelfSelector selects the document itself rather than an element in it.
const SelfSelector = "."

// CSSExtractor selects elements with a CSS selector. Text output is trimmed
// with inner whitespace runs folded into one space. It is listable.
type CSSExtractor struct {
	query Query
	sel   cascadia.Selector // nil selects the document itself
	err   error
}

// NewCSS compiles a "selector[,index[,output]]" query.
func NewCSS(raw string) (*CSSExtractor, error) {
	q := ParseQuery(raw)
	c := &CSSExtractor{query: q}
	if q.Primary == SelfSelector || q.Primary == "" {
		return c, nil
	}
	sel, err := cascadia.Compile(q.Primary)
	if err != nil {
		return nil, extractionError("css", q.Primary, err)
	}
	c.sel = sel
	return c, nil
}

// CSS is NewCSS for fluent use: a compile error is returned by the first
// Extract or ExtractList call instead.
func CSS(raw string) *CSSExtractor {
	c, err := NewCSS(raw)
	if err != nil {
		return &CSSExtractor{query: ParseQuery(raw), err: err}
	}
	return c
}

// Selector is an alias of CSS.
func Selector(raw string) *CSSExtractor { return CSS(raw) }

func (c *CSSExtractor) Extract(document string) (string, error) {
	doc, err := c.parse(document)
	if err != nil {
		return "", err
	}
	if c.sel == nil {
		return c.self(doc, document)
	}
	matches := doc.FindMatcher(c.sel)
	if c.query.Index >= matches.Length() {
		return "", extractionError("css", c.query.Primary, ErrNoMatch)
	}
	out, ok, err := c.output(matches.Eq(c.query.Index))
	if err != nil {
		return "", extractionError("css", c.query.Primary, err)
	}
	if !ok {
		return "", extractionError("css", c.query.Primary, fmt.Errorf("%w: attribute %q", ErrNoMatch, c.query.Output))
	}
	return out, nil
}

// ExtractList returns the output of every matching element in document
// order. Elements without the requested attribute are skipped.
func (c *CSSExtractor) ExtractList(document string) ([]string, error) {
	doc, err := c.parse(document)
	if err != nil {
		return nil, err
	}
	if c.sel == nil {
		out, err := c.self(doc, document)
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	}
	var (
		out  []string
		last error
	)
	doc.FindMatcher(c.sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		s, ok, err := c.output(el)
		if err != nil {
			last = err
			return false
		}
		if ok {
			out = append(out, s)
		}
		return true
	})
	if last != nil {
		return nil, extractionError("css", c.query.Primary, last)
	}
	return out, nil
}

func (c *CSSExtractor) String() string { return fmt.Sprintf("css(%s)", c.query) }

func (c *CSSExtractor) parse(document string) (*goquery.Document, error) {
	if c.err != nil {
		return nil, c.err
	}
	root, err := parseMarkup(document)
	if err != nil {
		return nil, extractionError("css", c.query.Primary, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

func (c *CSSExtractor) output(el *goquery.Selection) (string, bool, error) {
	switch c.query.Output {
	case OutputText:
		return collapseSpace(el.Text()), true, nil
	case OutputHTML:
		s, err := el.Html()
		return s, err == nil, err
	default:
		s, ok := el.Attr(c.query.Output)
		return s, ok, nil
	}
}

// self handles the "." selector: the whole text, the unchanged markup, or an
// attribute of the first top-level element.
func (c *CSSExtractor) self(doc *goquery.Document, raw string) (string, error) {
	switch c.query.Output {
	case OutputText:
		return collapseSpace(doc.Text()), nil
	case OutputHTML:
		return raw, nil
	}
	top := doc.Children()
	if top.Is("html") {
		top = top.Find("body").Children()
	}
	if s, ok := top.First().Attr(c.query.Output); ok {
		return s, nil
	}
	return "", extractionError("css", SelfSelector, fmt.Errorf("%w: attribute %q", ErrNoMatch, c.query.Output))
}
