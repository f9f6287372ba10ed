package extractors

import (
	"fmt"
	"log/slog"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultField names the chain configured by Extract. It backs AsString and is
// left out of the multi-field modes.
const DefaultField = "_default_field_"

// Session binds one document to a set of field chains and an optional split.
//
// Configuration methods return the session so calls can be chained. The first
// configuration error is kept: Err reports it and every terminal mode returns
// it. A failing call leaves the fields and split state as they were.
//
// A Session is not safe for concurrent configuration. Terminal modes only read
// the configuration, so a fully configured session may be read from several
// goroutines.
type Session struct {
	doc    string
	kind   Kind
	fields *orderedmap.OrderedMap[string, Chain]
	active *string
	split  *splitState
	err    error
	log    *slog.Logger
}

type splitState struct {
	by      Extractor
	records []string
}

// On starts a session over document.
func On(document string, opts ...Option) *Session {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.kind == "" {
		o.kind = DetectKind(document)
	}
	o.log.Debug("session created", "document_length", len(document), "kind", o.kind)
	return &Session{
		doc:    document,
		kind:   o.kind,
		fields: orderedmap.New[string, Chain](),
		log:    o.log,
	}
}

// Extract appends e to the default field.
func (s *Session) Extract(e Extractor) *Session {
	return s.ExtractField(DefaultField, e)
}

// ExtractField appends e to the chain of field, creating the chain on first
// use, and makes field the active field for With. An empty name selects the
// default field.
func (s *Session) ExtractField(field string, e Extractor) *Session {
	if field == "" {
		field = DefaultField
	}
	if e == nil {
		return s.fail(fmt.Errorf("%w: nil extractor for field %q", ErrConfiguration, field))
	}
	s.appendTo(field, e)
	s.active = &field
	return s
}

// With appends e to the field most recently named by Extract or ExtractField.
func (s *Session) With(e Extractor) *Session {
	if s.active == nil {
		return s.fail(fmt.Errorf("%w: no active field, call Extract or ExtractField first", ErrConfiguration))
	}
	if e == nil {
		return s.fail(fmt.Errorf("%w: nil extractor for field %q", ErrConfiguration, *s.active))
	}
	s.appendTo(*s.active, e)
	return s
}

// Split partitions the document into records with a listable extractor. The
// records are computed immediately; a later Split replaces them.
func (s *Session) Split(e Extractor) *Session {
	l, ok := asListable(e)
	if !ok {
		return s.fail(fmt.Errorf("%w: split needs a listable extractor, %s is not listable", ErrConfiguration, describe(e)))
	}
	records, err := l.ExtractList(s.doc)
	if err != nil {
		return s.fail(fmt.Errorf("split with %s: %w", describe(e), asExtraction(err)))
	}
	s.split = &splitState{by: e, records: records}
	s.log.Debug("document split", "extractor", describe(e), "records", len(records))
	return s
}

// Err returns the first configuration error, if any.
func (s *Session) Err() error { return s.err }

// ClearErr returns the recorded configuration error and forgets it. A rejected
// call leaves the configuration as it was, so the session is usable again.
func (s *Session) ClearErr() error {
	err := s.err
	s.err = nil
	return err
}

// Document returns the root document.
func (s *Session) Document() string { return s.doc }

// Kind returns the sniffed (or overridden) document kind.
func (s *Session) Kind() Kind { return s.kind }

// Fields returns every configured field name in configuration order,
// DefaultField included when it was used.
func (s *Session) Fields() []string {
	names := make([]string, 0, s.fields.Len())
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Chain returns a copy of the chain configured for field.
func (s *Session) Chain(field string) (Chain, bool) {
	c, ok := s.fields.Get(field)
	return slices.Clone(c), ok
}

// Records returns a copy of the split records, or nil when the session was
// not split.
func (s *Session) Records() []string {
	if s.split == nil {
		return nil
	}
	return slices.Clone(s.split.records)
}

func (s *Session) appendTo(field string, e Extractor) {
	chain, _ := s.fields.Get(field)
	s.fields.Set(field, append(chain, e))
	s.log.Debug("extractor added", "field", field, "extractor", describe(e), "chain_length", len(chain)+1)
}

func (s *Session) fail(err error) *Session {
	s.log.Debug("configuration rejected", "error", err)
	if s.err == nil {
		s.err = err
	}
	return s
}
