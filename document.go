package extractors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the sniffed grammar of a document.
type Kind string

const (
	KindText Kind = "text"
	KindHTML Kind = "html"
	KindXML  Kind = "xml"
	KindJSON Kind = "json"
)

// DetectKind sniffs the document grammar from its content. Markup fragments
// that mimetype reports as plain text (e.g. "<ul><li>1</li></ul>") count as
// HTML.
func DetectKind(document string) Kind {
	mtype := mimetype.Detect([]byte(document))
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/json"):
			return KindJSON
		case m.Is("text/html"):
			return KindHTML
		case m.Is("text/xml"), m.Is("application/xml"):
			return KindXML
		}
	}
	if strings.HasPrefix(strings.TrimSpace(document), "<") {
		return KindHTML
	}
	return KindText
}

// OnBytes starts a session over a byte slice.
func OnBytes(document []byte, opts ...Option) *Session {
	return On(string(document), opts...)
}

// OnReader reads r to the end and starts a session over its content.
func OnReader(r io.Reader, opts ...Option) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return OnBytes(data, opts...), nil
}

// OnFile reads the file at path and starts a session over its content.
func OnFile(path string, opts ...Option) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return OnBytes(data, opts...), nil
}
