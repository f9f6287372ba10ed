package extractors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"
	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-flash"

// Model identifies a generative model.
type Model string

// Invoker sends one prompt to a model and returns its raw reply.
// Implementations must be safe for concurrent use.
type Invoker interface {
	Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error)
}

// GenerateOption represents options for generation
type GenerateOption func(*generateConfig)

type generateConfig struct {
	ModelName  string
	Prompt     string
	Parameters map[string]string
}

// WithModelName sets the model name
func WithModelName(name string) GenerateOption {
	return func(cfg *generateConfig) { cfg.ModelName = name }
}

// WithPrompt sets the prompt text sent as the user turn.
func WithPrompt(text string) GenerateOption {
	return func(cfg *generateConfig) { cfg.Prompt = text }
}

// WithParameters sets generation parameters: temperature, topK, topP,
// maxTokens / maxOutputTokens.
func WithParameters(params map[string]string) GenerateOption {
	return func(cfg *generateConfig) { cfg.Parameters = params }
}

// GenerateBytes sends one text prompt through the Google GenAI client and
// returns the text of the first candidate.
func GenerateBytes(ctx context.Context, client *genai.Client, log *slog.Logger, opts ...GenerateOption) ([]byte, error) {
	var cfg generateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if client == nil {
		return nil, fmt.Errorf("client not initialized")
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("no prompt provided")
	}
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = defaultModel
	}

	config, err := generationConfig(cfg.Parameters)
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(cfg.Prompt)}, genai.RoleUser),
	}

	log.Debug("Generating content", "model", modelName, "prompt_length", len(cfg.Prompt))
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no parts in candidate content")
	}
	text := candidate.Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("no text in first part of response")
	}
	log.Debug("Generated content", "response_length", len(text))
	return []byte(text), nil
}

func generationConfig(params map[string]string) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}
	for key, raw := range params {
		switch key {
		case "temperature", "topP":
			f, err := cast.ToFloat32E(raw)
			if err != nil || f < 0 || f > 1 {
				return nil, fmt.Errorf("%s parameter %q must be between 0.0 and 1.0", key, raw)
			}
			if key == "temperature" {
				config.Temperature = &f
			} else {
				config.TopP = &f
			}
		case "topK":
			f, err := cast.ToFloat32E(raw)
			if err != nil || f <= 0 {
				return nil, fmt.Errorf("topK parameter %q must be greater than 0", raw)
			}
			config.TopK = &f
		case "maxTokens", "maxOutputTokens":
			n, err := cast.ToInt32E(raw)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%s parameter %q must be greater than 0", key, raw)
			}
			config.MaxOutputTokens = n
		}
	}
	return config, nil
}

type genaiInvoker struct {
	client *genai.Client
	log    *slog.Logger
}

// NewGenAIInvoker returns an Invoker backed by a Google GenAI client.
func NewGenAIInvoker(client *genai.Client, log *slog.Logger) Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &genaiInvoker{client: client, log: log}
}

func (g *genaiInvoker) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	return GenerateBytes(ctx, g.client, g.log,
		WithModelName(string(model)),
		WithPrompt(prompt),
		WithParameters(params),
	)
}
