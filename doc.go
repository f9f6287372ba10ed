// Package extractors is a small declarative DSL for pulling values out of
// documents. A session binds one document (HTML, XML, JSON or plain text) to
// named fields, each field is a chain of extractors run left to right, and a
// terminal call turns the configuration into a string, a record, a list of
// records or typed structs.
//
// # Problem Statement
//
// Scraping code tends to mix three things: where a value lives in the
// document, how it is cleaned up, and what shape the result takes. This
// package keeps them apart:
//
//   - Extractors know how to query one kind of document (CSS, XPath, JSONPath,
//     regular expressions, rune ranges)
//   - Chains compose extractors so the output of one is the input of the next
//   - Sessions hold the fields and an optional split of the document into records
//   - Terminal modes decide the result shape and how failures are reported
//
// # Basic Usage
//
// Extract a single value:
//
//	title, err := extractors.On(page).
//	    Extract(extractors.CSS("h1")).
//	    AsString()
//
// Extract several named fields at once:
//
//	m, err := extractors.On(page).
//	    ExtractField("title", extractors.CSS("h1")).
//	    ExtractField("price", extractors.CSS(".price")).
//	    With(extractors.Regex(`[\d.]+`)).
//	    AsMap()
//
// Split the document into records and extract the same fields from each:
//
//	items, err := extractors.On(page).
//	    Split(extractors.CSS("li.item,0,html")).
//	    ExtractField("name", extractors.CSS("a")).
//	    ExtractField("href", extractors.CSS("a,0,href")).
//	    AsMapList()
//
// # Query Syntax
//
// Query-based extractors take "primary[,index[,output]]":
//
//	"h1"             first h1, its text
//	"li,2"           third li, its text
//	"div,0,html"     first div, its inner markup
//	"a,0,href"       first a, its href attribute
//
// A missing or invalid index is 0 and a missing output is "text". For regular
// expressions the output names a capture group by number or name, and the
// match and group are read from the right so `\w{1,3}` stays one pattern;
// NewRegex takes a pattern verbatim. Range takes "start:end" rune offsets.
//
// # Partial Failure
//
// Multi-field modes never fail because one field did: the failing field is
// logged with slog at warn level, left out of the values and kept in
// Record.Failures. AsString has a single field and returns its error.
// Configuration mistakes are sticky: the first one is kept by the session,
// reported by Err and returned by every terminal call until ClearErr
// acknowledges it. A rejected call never changes the configuration.
//
// # Typed Results
//
// AsStruct and AsStructList populate structs through reflection, matching
// fields by `extract` tag, then `json` tag, then name. Values are coerced with
// spf13/cast. A SetterMap or any Populator replaces reflection.
//
// # Model Extraction
//
// ModelExtractor sends the document to a generative model through an Invoker.
// NewGenAIInvoker wraps a google.golang.org/genai client and prompts come from
// a PromptProvider, such as stick templates that reference {{ document }}.
//
// # Rules and Plans
//
// Configurations can be loaded from YAML with LoadRules and applied to a
// session. Session.Explain prints the resulting chain tree without running it.
//
// The cmd/extract command applies a rules file to a set of documents.
package extractors
