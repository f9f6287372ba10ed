package extractors

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const extractTag = "extract"

// Populator builds values of T and assigns extracted strings to them by field
// name. Converting the string to the target type is the populator's job.
type Populator[T any] interface {
	New() *T
	Set(dst *T, name, value string) error
}

// PopulateOption configures AsStruct and AsStructList.
type PopulateOption[T any] func(*populateConfig[T])

type populateConfig[T any] struct {
	populator Populator[T]
}

// WithPopulator replaces the reflection-based default populator.
func WithPopulator[T any](p Populator[T]) PopulateOption[T] {
	return func(c *populateConfig[T]) { c.populator = p }
}

// AsStruct runs every named field against the document and assigns the
// values to a new T. Fields that fail to extract or to assign are logged and
// keep their zero value.
func AsStruct[T any](s *Session, opts ...PopulateOption[T]) (*T, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, err := populatorFor(opts)
	if err != nil {
		return nil, err
	}
	return populate(s, p, s.doc, -1), nil
}

// AsStructList builds one T per split record, in record order.
func AsStructList[T any](s *Session, opts ...PopulateOption[T]) ([]*T, error) {
	if err := s.requireSplit(); err != nil {
		return nil, err
	}
	p, err := populatorFor(opts)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(s.split.records))
	for i, doc := range s.split.records {
		out = append(out, populate(s, p, doc, i))
	}
	return out, nil
}

func populatorFor[T any](opts []PopulateOption[T]) (Populator[T], error) {
	var cfg populateConfig[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.populator != nil {
		return cfg.populator, nil
	}
	return NewReflectPopulator[T]()
}

func populate[T any](s *Session, p Populator[T], doc string, index int) *T {
	dst := p.New()
	s.report(s.collect(doc, index, func(field, value string) error {
		if err := p.Set(dst, field, value); err != nil {
			if errors.Is(err, ErrPopulation) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrPopulation, err)
		}
		return nil
	}))
	return dst
}

// SetterMap is a Populator backed by explicit per-field setters.
type SetterMap[T any] map[string]func(dst *T, value string) error

func (m SetterMap[T]) New() *T { return new(T) }

func (m SetterMap[T]) Set(dst *T, name, value string) error {
	fn, ok := m[name]
	if !ok {
		return fmt.Errorf("%w: no setter for %q", ErrPopulation, name)
	}
	return fn(dst, value)
}

// ReflectPopulator assigns values to struct fields found by reflection.
//
// A field is addressed by its `extract:"name"` tag, its `json:"name"` tag or
// its Go name, matched case-insensitively. Nested structs are addressed with
// dotted names ("address.city"); nil struct pointers on the way are
// allocated. Values are converted with spf13/cast, or with UnmarshalText when
// the field implements encoding.TextUnmarshaler.
type ReflectPopulator[T any] struct {
	fields map[string]fieldPath
}

type fieldPath struct {
	index    []int
	priority int // lower wins when two fields claim the same name
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	unmarshaler  = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// NewReflectPopulator analyses T, which must be a struct type.
func NewReflectPopulator[T any]() (*ReflectPopulator[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrConfiguration, rt)
	}
	p := &ReflectPopulator[T]{fields: map[string]fieldPath{}}
	p.walk(rt, "", nil, map[reflect.Type]bool{})
	return p, nil
}

func (p *ReflectPopulator[T]) walk(t reflect.Type, parent string, idx []int, seen map[reflect.Type]bool) {
	seen[t] = true
	defer delete(seen, t)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		next := append(append([]int(nil), idx...), i)
		if f.Anonymous && isNested(f.Type) {
			p.walk(derefType(f.Type), parent, next, seen)
			continue
		}
		names := fieldNames(f)
		if len(names) == 0 {
			continue
		}
		for prio, name := range names {
			p.claim(joinKey(parent, name), next, prio)
		}
		if isNested(f.Type) && !seen[derefType(f.Type)] {
			for _, name := range names {
				p.walk(derefType(f.Type), joinKey(parent, name), next, seen)
			}
		}
	}
}

func (p *ReflectPopulator[T]) claim(key string, idx []int, priority int) {
	key = strings.ToLower(key)
	if cur, ok := p.fields[key]; ok && cur.priority <= priority {
		return
	}
	p.fields[key] = fieldPath{index: idx, priority: priority}
}

// New returns a zero T.
func (p *ReflectPopulator[T]) New() *T { return new(T) }

// Set converts value and stores it in the field called name.
func (p *ReflectPopulator[T]) Set(dst *T, name, value string) error {
	fp, ok := p.fields[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %T has no field %q", ErrPopulation, *dst, name)
	}
	v := reflect.ValueOf(dst).Elem()
	for i, fi := range fp.index {
		if i > 0 {
			v = derefAlloc(v)
		}
		v = v.Field(fi)
	}
	if err := assign(v, value); err != nil {
		return fmt.Errorf("%w: field %q: %w", ErrPopulation, name, err)
	}
	return nil
}

func assign(v reflect.Value, s string) error {
	if v.Kind() == reflect.Pointer {
		return assign(derefAlloc(v), s)
	}
	switch v.Type() {
	case timeType:
		t, err := cast.ToTimeE(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
		return nil
	case durationType:
		d, err := cast.ToDurationE(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}
	if v.CanAddr() && v.Addr().Type().Implements(unmarshaler) {
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	trimmed := strings.TrimSpace(s)
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(trimmed)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(decimal(trimmed))
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(decimal(trimmed))
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(trimmed)
		if err != nil {
			return err
		}
		if v.OverflowFloat(f) {
			return fmt.Errorf("%g overflows %s", f, v.Type())
		}
		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported type %s", v.Type())
		}
		items, err := cast.ToStringSliceE(s)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(items).Convert(v.Type()))
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

// decimal strips leading zeros so "08" is not read as octal.
func decimal(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	if len(s) > 1 && strings.Trim(s, "0123456789") == "" {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return sign + s
}

// fieldNames lists the names a field answers to, strongest first.
func fieldNames(f reflect.StructField) []string {
	ext := strings.Split(f.Tag.Get(extractTag), ",")[0]
	js := strings.Split(f.Tag.Get("json"), ",")[0]
	if ext == "-" || (js == "-" && ext == "") {
		return nil
	}
	var names []string
	if ext != "" {
		names = append(names, ext)
	}
	if js != "" && js != "-" {
		names = append(names, js)
	}
	return append(names, f.Name)
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// isNested reports whether t (or *t) is a struct whose fields should be
// addressed individually.
func isNested(t reflect.Type) bool {
	t = derefType(t)
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(unmarshaler)
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func derefAlloc(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Pointer {
		return v
	}
	if v.IsNil() {
		v.Set(reflect.New(v.Type().Elem()))
	}
	return v.Elem()
}
