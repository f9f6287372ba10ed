package extractors

import "fmt"

// Extractor transforms one document into one string.
// Implementations must be free of side effects so a single value can be
// shared between sessions and goroutines.
type Extractor interface {
	Extract(document string) (string, error)
}

// ListableExtractor can additionally turn one document into an ordered
// sequence of strings. Only listable extractors can split a session into
// records.
type ListableExtractor interface {
	Extractor
	ExtractList(document string) ([]string, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(document string) (string, error)

// Extract calls f(document).
func (f ExtractorFunc) Extract(document string) (string, error) { return f(document) }

func (f ExtractorFunc) String() string { return "func" }

// asListable reports whether e offers the listable capability.
func asListable(e Extractor) (ListableExtractor, bool) {
	l, ok := e.(ListableExtractor)
	return l, ok
}

// describe returns a short human-readable label for e, used in logs,
// diagnostics and plans.
func describe(e Extractor) string {
	if e == nil {
		return "<nil>"
	}
	if s, ok := e.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", e)
}
