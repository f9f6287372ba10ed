package extractors

import "strings"

// Chain is the ordered list of extractors bound to one field.
type Chain []Extractor

// Run folds the chain over input from left to right: every step receives the
// previous step's output. The first failure stops the fold and is returned as
// a *StepError matching ErrExtraction. The returned string is the last value
// computed before the failure.
func (c Chain) Run(input string) (string, error) {
	acc := input
	for i, e := range c {
		out, err := e.Extract(acc)
		if err != nil {
			return acc, &StepError{Step: i, Extractor: describe(e), Input: acc, Err: asExtraction(err)}
		}
		acc = out
	}
	return acc, nil
}

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, e := range c {
		parts[i] = describe(e)
	}
	return strings.Join(parts, " → ")
}
