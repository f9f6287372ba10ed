package extractors

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invokerFunc func(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error)

func (f invokerFunc) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	return f(ctx, model, prompt, params)
}

func TestModelExtractor_Extract(t *testing.T) {
	stub := NewStubInvoker("```\nLamp\n```")
	prompts := SimplePromptProvider{"title": "Return the product title."}
	m := NewModelExtractor(stub, prompts, "title", "gemini-1.5-pro", WithModelLogger(quietLogger()))

	out, err := On("<h1>Lamp</h1>", quiet()).Extract(m).AsString()
	require.NoError(t, err)
	assert.Equal(t, "Lamp", out)
	assert.Equal(t, []string{"Return the product title.\n\n<<DOC>>\n<h1>Lamp</h1>\n<<END>>"}, stub.Prompts())
	assert.Equal(t, "model(title,gemini-1.5-pro)", m.String())
}

func TestModelExtractor_ContextualPrompt(t *testing.T) {
	prompts, err := NewStickPromptProvider(WithTemplates(map[string]string{
		"title": "v{{ version }} title of: {{ document }}",
	}))
	require.NoError(t, err)

	stub := NewStubInvoker("Lamp")
	m := NewModelExtractor(stub, prompts, "title", "", WithModelLogger(quietLogger()))

	out, err := m.Extract("a lamp")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", out)
	assert.Equal(t, []string{"v1 title of: a lamp"}, stub.Prompts())
}

func TestModelExtractor_ParametersReachInvoker(t *testing.T) {
	var got map[string]string
	var gotModel Model
	inv := invokerFunc(func(_ context.Context, model Model, _ string, params map[string]string) ([]byte, error) {
		got, gotModel = params, model
		return []byte("ok"), nil
	})
	m := NewModelExtractor(inv, SimplePromptProvider{"p": "x"}, "p", "m1",
		WithModelParameters(map[string]string{"temperature": "0.2"}),
		WithModelLogger(quietLogger()))

	_, err := m.Extract("doc")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"temperature": "0.2"}, got)
	assert.Equal(t, Model("m1"), gotModel)
}

func TestModelExtractor_Retry(t *testing.T) {
	stub := NewStubInvoker("ok").FailNext(errors.New("rate limited"), errors.New("rate limited"))
	m := NewModelExtractor(stub, SimplePromptProvider{"p": "x"}, "p", "",
		WithModelRetry(2, time.Millisecond),
		WithModelLogger(quietLogger()))

	out, err := m.Extract("doc")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Len(t, stub.Prompts(), 3)
}

func TestModelExtractor_Errors(t *testing.T) {
	prompts := SimplePromptProvider{"p": "x"}

	down := NewStubInvoker("ok").FailNext(errors.New("down"))
	_, err := NewModelExtractor(down, prompts, "p", "", WithModelLogger(quietLogger())).Extract("doc")
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorContains(t, err, "down")

	_, err = NewModelExtractor(NewStubInvoker(), prompts, "p", "").Extract("doc")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = NewModelExtractor(NewStubInvoker("x"), prompts, "missing", "").Extract("doc")
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorContains(t, err, "not found")

	_, err = NewModelExtractor(nil, prompts, "p", "").Extract("doc")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestModelExtractor_Timeout(t *testing.T) {
	blocking := invokerFunc(func(ctx context.Context, _ Model, _ string, _ map[string]string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := NewModelExtractor(blocking, SimplePromptProvider{"p": "x"}, "p", "",
		WithModelTimeout(10*time.Millisecond),
		WithModelLogger(quietLogger()))

	_, err := m.Extract("doc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestModelExtractor_ExtractList(t *testing.T) {
	stub := NewStubInvoker("```json\n[\"a\", 2, {\"k\": \"v\"}]\n```", `{"not": "a list"}`, "nope")
	m := NewModelExtractor(stub, SimplePromptProvider{"p": "x"}, "p", "", WithModelLogger(quietLogger()))

	list, err := m.ExtractList("doc")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", `{"k":"v"}`}, list)

	_, err = m.ExtractList("doc")
	assert.ErrorIs(t, err, ErrExtraction)

	_, err = m.ExtractList("doc")
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestModelExtractor_Split(t *testing.T) {
	stub := NewStubInvoker(`["Lamp 20", "Desk 90"]`)
	m := NewModelExtractor(stub, SimplePromptProvider{"p": "list products"}, "p", "", WithModelLogger(quietLogger()))

	list, err := On("free text catalogue", quiet()).
		Split(m).
		ExtractField("price", Regex(`\d+`)).
		AsMapList()
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"price": "20"}, {"price": "90"}}, list)
}

func TestSanitizeReply(t *testing.T) {
	tests := map[string]string{
		"  plain  ":              "plain",
		"```json\n[1]\n```":      "[1]",
		"```\nx```":              "x",
		"```\nline1\nline2\n```": "line1\nline2",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeReply(in), in)
	}
}

func TestStickPromptProvider(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/title.twig":   {Data: []byte("[{{ lang }}] {{ tag }}: {{ document }}")},
		"prompts/readme.txt":   {Data: []byte("ignored")},
		"prompts/sub/sum.twig": {Data: []byte("sum")},
	}
	p, err := NewStickPromptProvider(WithFS(fsys, "prompts"), WithVar("lang", "fr"))
	require.NoError(t, err)

	out, err := p.GetPromptWithContext("title", 1, "doc")
	require.NoError(t, err)
	assert.Equal(t, "[fr] title: doc", out)

	out, err = p.GetPrompt("sum", 1)
	require.NoError(t, err)
	assert.Equal(t, "sum", out)

	_, err = p.GetPrompt("readme", 1)
	assert.ErrorContains(t, err, "not found")

	p.AddTemplate("late", "added")
	out, err = p.GetPrompt("late", 1)
	require.NoError(t, err)
	assert.Equal(t, "added", out)

	_, err = NewStickPromptProvider(WithFS(fsys, "absent"))
	assert.Error(t, err)
}

func TestSimplePromptProvider(t *testing.T) {
	p := SimplePromptProvider{"a": "A"}
	out, err := p.GetPrompt("a", 1)
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	_, err = p.GetPrompt("b", 1)
	assert.ErrorContains(t, err, "not found")
}

func TestRetryable(t *testing.T) {
	calls := 0
	err := retryable(context.Background(), func() error {
		calls++
		return errors.New("always")
	}, 2, time.Millisecond, quietLogger())
	assert.EqualError(t, err, "always")
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryable(context.Background(), func() error {
		calls++
		return errors.New("once")
	}, 0, time.Millisecond, quietLogger())
	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryable(ctx, func() error { return errors.New("fail") }, 3, time.Hour, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}
