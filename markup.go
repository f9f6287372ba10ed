package extractors

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentContext accepts any element as a child, so split records such as
// "<td>a</td>" or "<option>x</option>" keep their elements.
var fragmentContext = &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}

// parseMarkup parses a complete HTML document as such and anything else as a
// fragment hung under a bare document node.
func parseMarkup(document string) (*html.Node, error) {
	if isCompleteDocument(document) {
		return html.Parse(strings.NewReader(document))
	}
	nodes, err := html.ParseFragment(strings.NewReader(document), fragmentContext)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func isCompleteDocument(document string) bool {
	head := strings.ToLower(strings.TrimSpace(document[:min(len(document), 512)]))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

// collapseSpace trims s and folds every whitespace run into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
