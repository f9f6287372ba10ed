package extractors

import "fmt"

// AutoExtractor picks a kind from each input it sees: JSON documents are
// queried with JSONPath, markup with CSS and anything else with a regular
// expression. It is listable.
type AutoExtractor struct {
	raw   string
	css   *CSSExtractor
	json  *JSONPathExtractor
	regex *RegexExtractor
}

// Auto builds an extractor that sniffs the input before querying it. Each
// underlying kind reports its own query errors when it is used.
func Auto(raw string) *AutoExtractor {
	return &AutoExtractor{raw: raw, css: CSS(raw), json: JSONPath(raw), regex: Regex(raw)}
}

func (a *AutoExtractor) Extract(document string) (string, error) {
	return a.pick(document).Extract(document)
}

func (a *AutoExtractor) ExtractList(document string) ([]string, error) {
	return a.pick(document).ExtractList(document)
}

func (a *AutoExtractor) String() string { return fmt.Sprintf("auto(%s)", a.raw) }

func (a *AutoExtractor) pick(document string) ListableExtractor {
	switch DetectKind(document) {
	case KindJSON:
		return a.json
	case KindHTML, KindXML:
		return a.css
	default:
		return a.regex
	}
}
