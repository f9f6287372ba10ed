package extractors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
)

// ModelExtractor asks a generative model to transform the document. The
// prompt comes from a PromptProvider; contextual providers receive the
// document as a template variable, other providers get it appended between
// <<DOC>> and <<END>> markers. It is listable when the model replies with a
// JSON array.
type ModelExtractor struct {
	invoker    Invoker
	prompts    PromptProvider
	prompt     string
	model      Model
	params     map[string]string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	log        *slog.Logger
}

// ModelOption configures a ModelExtractor.
type ModelOption func(*ModelExtractor)

// WithModelTimeout bounds every Extract call made without a context.
func WithModelTimeout(d time.Duration) ModelOption {
	return func(m *ModelExtractor) { m.timeout = d }
}

// WithModelRetry retries failed calls with exponential backoff.
func WithModelRetry(max int, backoff time.Duration) ModelOption {
	return func(m *ModelExtractor) {
		m.maxRetries = max
		m.backoff = backoff
	}
}

// WithModelParameters passes generation parameters to the invoker.
func WithModelParameters(params map[string]string) ModelOption {
	return func(m *ModelExtractor) { m.params = params }
}

// WithModelLogger sets the logger for retries and calls.
func WithModelLogger(log *slog.Logger) ModelOption {
	return func(m *ModelExtractor) { m.log = log }
}

// NewModelExtractor builds a model-backed extractor for the prompt tagged
// prompt. An empty model lets the invoker pick its default.
func NewModelExtractor(invoker Invoker, prompts PromptProvider, prompt string, model Model, opts ...ModelOption) *ModelExtractor {
	m := &ModelExtractor{invoker: invoker, prompts: prompts, prompt: prompt, model: model, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ModelExtractor) Extract(document string) (string, error) {
	ctx, cancel := m.context()
	defer cancel()
	return m.ExtractContext(ctx, document)
}

// ExtractContext is Extract bound to ctx.
func (m *ModelExtractor) ExtractContext(ctx context.Context, document string) (string, error) {
	reply, err := m.generate(ctx, document)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", extractionError("model", m.prompt, ErrNoMatch)
	}
	return reply, nil
}

// ExtractList expects a JSON array reply and returns its items.
func (m *ModelExtractor) ExtractList(document string) ([]string, error) {
	ctx, cancel := m.context()
	defer cancel()
	reply, err := m.generate(ctx, document)
	if err != nil {
		return nil, err
	}
	data, err := oj.ParseString(reply)
	if err != nil {
		return nil, extractionError("model", m.prompt, fmt.Errorf("reply is not JSON: %w", err))
	}
	items, ok := data.([]any)
	if !ok {
		return nil, extractionError("model", m.prompt, fmt.Errorf("reply is not a JSON array"))
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := formatJSON(item)
		if err != nil {
			return nil, extractionError("model", m.prompt, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *ModelExtractor) String() string {
	return fmt.Sprintf("model(%s,%s)", m.prompt, m.model)
}

func (m *ModelExtractor) context() (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(context.Background(), m.timeout)
	}
	return context.WithCancel(context.Background())
}

func (m *ModelExtractor) generate(ctx context.Context, document string) (string, error) {
	if m.invoker == nil || m.prompts == nil {
		return "", extractionError("model", m.prompt, errors.New("invoker and prompt provider are required"))
	}
	prompt, err := m.buildPrompt(document)
	if err != nil {
		return "", extractionError("model", m.prompt, err)
	}
	m.log.Debug("Calling model", "prompt", m.prompt, "model", m.model, "prompt_length", len(prompt))

	var raw []byte
	err = retryable(ctx, func() error {
		var genErr error
		raw, genErr = m.invoker.Generate(ctx, m.model, prompt, m.params)
		return genErr
	}, m.maxRetries, m.backoff, m.log)
	if err != nil {
		return "", extractionError("model", m.prompt, err)
	}
	return sanitizeReply(string(raw)), nil
}

func (m *ModelExtractor) buildPrompt(document string) (string, error) {
	if cp, ok := m.prompts.(ContextualPromptProvider); ok {
		return cp.GetPromptWithContext(m.prompt, 1, document)
	}
	tpl, err := m.prompts.GetPrompt(m.prompt, 1)
	if err != nil {
		return "", err
	}
	return tpl + "\n\n<<DOC>>\n" + document + "\n<<END>>", nil
}

// sanitizeReply removes the code fences models like to wrap replies in.
func sanitizeReply(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
