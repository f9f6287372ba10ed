package extractors

import "fmt"

// PlanNodeType defines what a plan node describes.
type PlanNodeType string

const (
	DocumentNodeType PlanNodeType = "Document"
	SplitNodeType    PlanNodeType = "Split"
	FieldNodeType    PlanNodeType = "Field"
	StepNodeType     PlanNodeType = "Step"
)

// PlanNode describes a session's configuration as a tree: the document at
// the root, then the split (if any) and one node per field with its steps.
type PlanNode struct {
	Type      PlanNodeType `json:"type"`
	Name      string       `json:"name,omitempty"`      // field name
	Extractor string       `json:"extractor,omitempty"` // split or step extractor
	Step      int          `json:"step,omitempty"`      // position in the chain
	Kind      Kind         `json:"kind,omitempty"`      // document kind
	Length    int          `json:"length,omitempty"`    // document length in bytes
	Records   int          `json:"records,omitempty"`   // split record count
	Listable  bool         `json:"listable,omitempty"`
	Children  []*PlanNode  `json:"children,omitempty"`
}

// FormatType represents the output formats of FormatPlan.
type FormatType string

const (
	FormatText FormatType = "text"
	FormatJSON FormatType = "json"
)

// Plan describes the current configuration. It does not run any extractor.
func (s *Session) Plan() *PlanNode {
	root := &PlanNode{Type: DocumentNodeType, Kind: s.kind, Length: len(s.doc)}
	if s.split != nil {
		root.Children = append(root.Children, &PlanNode{
			Type:      SplitNodeType,
			Extractor: describe(s.split.by),
			Records:   len(s.split.records),
			Listable:  true,
		})
	}
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		field := &PlanNode{Type: FieldNodeType, Name: pair.Key}
		for i, e := range pair.Value {
			_, listable := asListable(e)
			field.Children = append(field.Children, &PlanNode{
				Type:      StepNodeType,
				Extractor: describe(e),
				Step:      i,
				Listable:  listable,
			})
		}
		root.Children = append(root.Children, field)
	}
	return root
}

// Explain returns the plan as an indented text tree.
func (s *Session) Explain() string {
	return formatAsText(s.Plan())
}

// FormatPlan renders plan in the requested format.
func FormatPlan(plan *PlanNode, format FormatType) (string, error) {
	if plan == nil {
		return "", fmt.Errorf("%w: nil plan", ErrConfiguration)
	}
	switch format {
	case FormatText, "":
		return formatAsText(plan), nil
	case FormatJSON:
		return formatAsJSON(plan)
	}
	return "", fmt.Errorf("%w: unsupported plan format %q", ErrConfiguration, format)
}
