package extractors

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is the result of running every configured field against one
// document. Values keep field configuration order; fields that failed are
// absent from the values and listed in Failures instead.
type Record struct {
	values   *orderedmap.OrderedMap[string, string]
	Failures []*FieldError
}

func newRecord() *Record {
	return &Record{values: orderedmap.New[string, string]()}
}

// Get returns the value of field and whether it was extracted.
func (r *Record) Get(field string) (string, bool) {
	return r.values.Get(field)
}

// Keys returns the extracted field names in configuration order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of extracted fields.
func (r *Record) Len() int { return r.values.Len() }

// Map copies the extracted values into a plain map.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

// MarshalJSON encodes the extracted values as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.values.MarshalJSON()
}

func (r *Record) set(field, value string) { r.values.Set(field, value) }
