package extractors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// formatAsJSON formats the plan as indented JSON.
func formatAsJSON(plan *PlanNode) (string, error) {
	bytes, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// formatAsText formats the plan as an ASCII tree.
func formatAsText(plan *PlanNode) string {
	var sb strings.Builder
	sb.WriteString("Extraction Plan\n")
	formatNodeAsText(plan, "", true, &sb)
	return sb.String()
}

func formatNodeAsText(node *PlanNode, prefix string, isLast bool, sb *strings.Builder) {
	connector := "├─ "
	if isLast {
		connector = "└─ "
	}
	if prefix == "" {
		connector = ""
	}
	fmt.Fprintf(sb, "%s%s%s\n", prefix, connector, formatNodeInfo(node))

	childPrefix := "  "
	if prefix != "" {
		if isLast {
			childPrefix = prefix + "   "
		} else {
			childPrefix = prefix + "│  "
		}
	}
	for i, child := range node.Children {
		formatNodeAsText(child, childPrefix, i == len(node.Children)-1, sb)
	}
}

func formatNodeInfo(node *PlanNode) string {
	switch node.Type {
	case DocumentNodeType:
		return fmt.Sprintf("Document (kind=%s, length=%d)", node.Kind, node.Length)
	case SplitNodeType:
		return fmt.Sprintf("Split %s (records=%d)", node.Extractor, node.Records)
	case FieldNodeType:
		name := fmt.Sprintf("%q", node.Name)
		if node.Name == DefaultField {
			name = "(default)"
		}
		return fmt.Sprintf("Field %s (steps=%d)", name, len(node.Children))
	case StepNodeType:
		info := fmt.Sprintf("%d: %s", node.Step, node.Extractor)
		if node.Listable {
			info += " [listable]"
		}
		return info
	}
	return string(node.Type)
}
