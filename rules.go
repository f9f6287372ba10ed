package extractors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules is a session configuration loaded from YAML:
//
//	split:
//	  kind: css
//	  query: li.item
//	fields:
//	  - name: title
//	    steps:
//	      - kind: css
//	        query: h2
//	      - kind: regex
//	        query: '\w+'
type Rules struct {
	Split  *Step       `yaml:"split,omitempty"`
	Fields []FieldRule `yaml:"fields"`
}

// FieldRule is the chain of one named field.
type FieldRule struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step describes one extractor. Match and Group only apply to the regex kind
// and let a pattern contain commas.
type Step struct {
	Kind  string `yaml:"kind"`
	Query string `yaml:"query"`
	Match *int   `yaml:"match,omitempty"`
	Group string `yaml:"group,omitempty"`
}

// KindFactory builds an extractor from a step query.
type KindFactory func(query string) Extractor

// RulesOption configures Apply.
type RulesOption func(*rulesConfig)

type rulesConfig struct {
	kinds map[string]KindFactory
}

// WithKindFactory registers an extra step kind, or replaces a built-in one.
func WithKindFactory(name string, factory KindFactory) RulesOption {
	return func(c *rulesConfig) { c.kinds[strings.ToLower(name)] = factory }
}

// LoadRules decodes and validates rules from r. Unknown keys are rejected.
func LoadRules(r io.Reader) (*Rules, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var rules Rules
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode rules: %v", ErrConfiguration, err)
	}
	if err := rules.validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadRulesFile reads rules from path.
func LoadRulesFile(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	rules, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

func (r *Rules) validate() error {
	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: rules define no fields", ErrConfiguration)
	}
	seen := make(map[string]bool, len(r.Fields))
	for i, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrConfiguration, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: field %q defined twice", ErrConfiguration, f.Name)
		}
		seen[f.Name] = true
		if len(f.Steps) == 0 {
			return fmt.Errorf("%w: field %q has no steps", ErrConfiguration, f.Name)
		}
		for j, st := range f.Steps {
			if st.Kind == "" {
				return fmt.Errorf("%w: field %q step %d has no kind", ErrConfiguration, f.Name, j)
			}
		}
	}
	if r.Split != nil && r.Split.Kind == "" {
		return fmt.Errorf("%w: split has no kind", ErrConfiguration)
	}
	return nil
}

// Apply configures s from the rules: the split first, when present, then every
// field in order. It returns the session's configuration error.
func (r *Rules) Apply(s *Session, opts ...RulesOption) error {
	cfg := rulesConfig{kinds: make(map[string]KindFactory)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if r.Split != nil {
		e, err := cfg.build(*r.Split)
		if err != nil {
			return fmt.Errorf("split: %w", err)
		}
		s.Split(e)
	}
	for _, f := range r.Fields {
		for i, st := range f.Steps {
			e, err := cfg.build(st)
			if err != nil {
				return fmt.Errorf("field %q step %d: %w", f.Name, i, err)
			}
			if i == 0 {
				s.ExtractField(f.Name, e)
			} else {
				s.With(e)
			}
		}
	}
	return s.Err()
}

// build constructs built-in kinds eagerly so query errors surface here.
func (c *rulesConfig) build(st Step) (Extractor, error) {
	kind := strings.ToLower(st.Kind)
	if factory, ok := c.kinds[kind]; ok {
		e := factory(st.Query)
		if e == nil {
			return nil, fmt.Errorf("%w: kind %q built no extractor", ErrConfiguration, kind)
		}
		return e, nil
	}

	var (
		e   Extractor
		err error
	)
	switch kind {
	case "css", "selector":
		e, err = NewCSS(st.Query)
	case "xpath":
		e, err = NewXPath(st.Query)
	case "json", "jsonpath":
		e, err = NewJSONPath(st.Query)
	case "regex":
		e, err = c.regex(st)
	case "range":
		e, err = NewRange(st.Query)
	case "auto":
		e = Auto(st.Query)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrConfiguration, st.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return e, nil
}

func (c *rulesConfig) regex(st Step) (Extractor, error) {
	if st.Match == nil && st.Group == "" {
		re := Regex(st.Query)
		return re, re.err
	}
	var opts []RegexOption
	if st.Match != nil {
		opts = append(opts, WithMatch(*st.Match))
	}
	if st.Group != "" {
		opts = append(opts, WithGroup(st.Group))
	}
	return NewRegex(st.Query, opts...)
}
