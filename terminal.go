package extractors

import "fmt"

// AsString runs the default field against the document and returns its value.
// Any extraction failure is returned, since there is no partial result.
func (s *Session) AsString() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	chain, ok := s.fields.Get(DefaultField)
	if !ok {
		return "", fmt.Errorf("%w: no default field configured, call Extract first", ErrConfiguration)
	}
	out, err := chain.Run(s.doc)
	if err != nil {
		return "", &FieldError{Field: DefaultField, Record: -1, Value: out, Err: err}
	}
	return out, nil
}

// AsRecord runs every named field against the document. Fields that fail are
// logged, listed in Record.Failures and left out of the values.
func (s *Session) AsRecord() (*Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record(s.doc, -1), nil
}

// AsMap is AsRecord flattened to a plain map.
func (s *Session) AsMap() (map[string]string, error) {
	rec, err := s.AsRecord()
	if err != nil {
		return nil, err
	}
	return rec.Map(), nil
}

// AsRecords runs every named field against each split record, in record
// order. Failures are scoped to the record they happened in.
func (s *Session) AsRecords() ([]*Record, error) {
	if err := s.requireSplit(); err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(s.split.records))
	for i, doc := range s.split.records {
		out = append(out, s.record(doc, i))
	}
	return out, nil
}

// AsMapList is AsRecords flattened to plain maps.
func (s *Session) AsMapList() ([]map[string]string, error) {
	recs, err := s.AsRecords()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Map()
	}
	return out, nil
}

func (s *Session) requireSplit() error {
	if s.err != nil {
		return s.err
	}
	if s.split == nil {
		return fmt.Errorf("%w: must split first", ErrState)
	}
	return nil
}

func (s *Session) record(doc string, index int) *Record {
	rec := newRecord()
	rec.Failures = s.collect(doc, index, func(field, value string) error {
		rec.set(field, value)
		return nil
	})
	s.report(rec.Failures)
	return rec
}

// collect runs every named field against doc and hands each value to apply.
// A failing chain or a failing apply is recorded and the fold moves on to the
// next field.
func (s *Session) collect(doc string, index int, apply func(field, value string) error) []*FieldError {
	var failures []*FieldError
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == DefaultField {
			continue
		}
		value, err := pair.Value.Run(doc)
		if err == nil {
			err = apply(pair.Key, value)
		}
		if err != nil {
			failures = append(failures, &FieldError{Field: pair.Key, Record: index, Value: value, Err: err})
		}
	}
	return failures
}

func (s *Session) report(failures []*FieldError) {
	for _, f := range failures {
		s.log.Warn("field skipped",
			"field", f.Field,
			"record", f.Record,
			"value_preview", preview(f.Value),
			"error", f.Err)
	}
}
