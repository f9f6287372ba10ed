package extractors

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cast"
)

// JSONPathExtractor evaluates a JSONPath expression against a JSON document.
// Scalars are returned as plain strings, objects and arrays as compact JSON
// with sorted keys. An output other than "text" or "html" names a member to
// read from each matched object. It is listable.
type JSONPathExtractor struct {
	query Query
	expr  jp.Expr
	err   error
}

// NewJSONPath parses a "path[,index[,member]]" query.
func NewJSONPath(raw string) (*JSONPathExtractor, error) {
	q := ParseQuery(raw)
	expr, err := jp.ParseString(q.Primary)
	if err != nil {
		return nil, extractionError("jsonpath", q.Primary, err)
	}
	return &JSONPathExtractor{query: q, expr: expr}, nil
}

// JSONPath is NewJSONPath for fluent use: a parse error is returned by the
// first Extract or ExtractList call instead.
func JSONPath(raw string) *JSONPathExtractor {
	j, err := NewJSONPath(raw)
	if err != nil {
		return &JSONPathExtractor{query: ParseQuery(raw), err: err}
	}
	return j
}

// JSON is an alias of JSONPath.
func JSON(raw string) *JSONPathExtractor { return JSONPath(raw) }

func (j *JSONPathExtractor) Extract(document string) (string, error) {
	values, err := j.evaluate(document)
	if err != nil {
		return "", err
	}
	v, err := pick(values, j.query.Index)
	if err != nil {
		return "", extractionError("jsonpath", j.query.Primary, err)
	}
	return v, nil
}

// ExtractList returns every match in document order.
func (j *JSONPathExtractor) ExtractList(document string) ([]string, error) {
	return j.evaluate(document)
}

func (j *JSONPathExtractor) String() string { return fmt.Sprintf("jsonpath(%s)", j.query) }

func (j *JSONPathExtractor) evaluate(document string) ([]string, error) {
	if j.err != nil {
		return nil, j.err
	}
	data, err := oj.ParseString(document)
	if err != nil {
		return nil, extractionError("jsonpath", j.query.Primary, err)
	}
	var out []string
	for _, v := range j.expr.Get(data) {
		if j.query.Output != OutputText && j.query.Output != OutputHTML {
			obj, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if v, ok = obj[j.query.Output]; !ok {
				continue
			}
		}
		s, err := formatJSON(v)
		if err != nil {
			return nil, extractionError("jsonpath", j.query.Primary, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func formatJSON(v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any:
		return oj.JSON(v, &ojg.Options{Sort: true}), nil
	case nil:
		return "", nil
	}
	return cast.ToStringE(v)
}
