package extractors

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/spf13/cast"
	"golang.org/x/net/html"
)

// XPathExtractor evaluates an XPath expression. XML documents are parsed as
// XML, anything else as HTML (fragments keep table rows and cells). Expressions returning a number, string or
// boolean yield a single formatted value. It is listable.
type XPathExtractor struct {
	query Query
	expr  *xpath.Expr
	err   error
}

// NewXPath compiles an "expression[,index[,output]]" query.
func NewXPath(raw string) (*XPathExtractor, error) {
	q := ParseQuery(raw)
	expr, err := xpath.Compile(q.Primary)
	if err != nil {
		return nil, extractionError("xpath", q.Primary, err)
	}
	return &XPathExtractor{query: q, expr: expr}, nil
}

// XPath is NewXPath for fluent use: a compile error is returned by the first
// Extract or ExtractList call instead.
func XPath(raw string) *XPathExtractor {
	x, err := NewXPath(raw)
	if err != nil {
		return &XPathExtractor{query: ParseQuery(raw), err: err}
	}
	return x
}

func (x *XPathExtractor) Extract(document string) (string, error) {
	values, err := x.evaluate(document)
	if err != nil {
		return "", err
	}
	v, err := pick(values, x.query.Index)
	if err != nil {
		return "", extractionError("xpath", x.query.Primary, err)
	}
	return v, nil
}

// ExtractList returns the output of every selected node in document order.
func (x *XPathExtractor) ExtractList(document string) ([]string, error) {
	return x.evaluate(document)
}

func (x *XPathExtractor) String() string { return fmt.Sprintf("xpath(%s)", x.query) }

func (x *XPathExtractor) evaluate(document string) ([]string, error) {
	if x.err != nil {
		return nil, x.err
	}
	var (
		nav xpath.NodeNavigator
		err error
	)
	if DetectKind(document) == KindXML {
		var root *xmlquery.Node
		if root, err = xmlquery.Parse(strings.NewReader(document)); err == nil {
			nav = xmlquery.CreateXPathNavigator(root)
		}
	} else {
		var root *html.Node
		if root, err = parseMarkup(document); err == nil {
			nav = htmlquery.CreateXPathNavigator(root)
		}
	}
	if err != nil {
		return nil, extractionError("xpath", x.query.Primary, err)
	}

	result := x.expr.Evaluate(nav)
	iter, ok := result.(*xpath.NodeIterator)
	if !ok {
		s, err := cast.ToStringE(result)
		if err != nil {
			return nil, extractionError("xpath", x.query.Primary, err)
		}
		return []string{s}, nil
	}
	var out []string
	for iter.MoveNext() {
		if s, ok := x.output(iter.Current()); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (x *XPathExtractor) output(nav xpath.NodeNavigator) (string, bool) {
	if x.query.Output == OutputText {
		if _, ok := nav.(*htmlquery.NodeNavigator); ok && nav.NodeType() == xpath.ElementNode {
			return collapseSpace(nav.Value()), true
		}
		return nav.Value(), true
	}
	switch n := nav.(type) {
	case *htmlquery.NodeNavigator:
		if x.query.Output == OutputHTML {
			return renderInner(n.Current()), true
		}
		return htmlAttr(n.Current(), x.query.Output)
	case *xmlquery.NodeNavigator:
		if x.query.Output == OutputHTML {
			return n.Current().OutputXML(false), true
		}
		for _, a := range n.Current().Attr {
			if a.Name.Local == x.query.Output {
				return a.Value, true
			}
		}
	}
	return "", false
}

// renderInner serializes the children of n.
func renderInner(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

func htmlAttr(n *html.Node, name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == name {
			return a.Val, true
		}
	}
	return "", false
}
