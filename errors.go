package extractors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrConfiguration marks misuse of the configuration API.
	ErrConfiguration = errors.New("configuration error")
	// ErrState is returned by record modes when the session was never split.
	ErrState = errors.New("invalid session state")
	// ErrExtraction marks an extractor that failed against its input.
	ErrExtraction = errors.New("extraction failed")
	// ErrPopulation marks a value that could not be assigned to a struct field.
	ErrPopulation = errors.New("population failed")
	// ErrNoMatch is returned when a query matches nothing, or nothing at the requested index.
	ErrNoMatch = fmt.Errorf("%w: no match", ErrExtraction)
)

const previewLength = 100

// StepError reports which step of a chain failed and the value it received.
type StepError struct {
	Step      int
	Extractor string
	Input     string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Extractor, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FieldError is the diagnostic recorded when a field is left out of a
// multi-field result. Record is -1 when the root document was used.
type FieldError struct {
	Field  string
	Record int
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("record %d field %q: %v", e.Record, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// extractionError wraps cause so it always matches ErrExtraction.
func extractionError(kind, query string, cause error) error {
	if errors.Is(cause, ErrExtraction) {
		return fmt.Errorf("%s %q: %w", kind, query, cause)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrExtraction, kind, query, cause)
}

// asExtraction makes err match ErrExtraction without hiding its own chain.
func asExtraction(err error) error {
	if errors.Is(err, ErrExtraction) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrExtraction, err)
}

func preview(s string) string {
	if len(s) <= previewLength {
		return s
	}
	cut := previewLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
