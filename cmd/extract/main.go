// Command extract applies a YAML rules file to documents and prints the
// results as JSON lines, one per input file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/vivaneiona/extractors"
)

const (
	modeAuto   = "auto"
	modeString = "string"
	modeMap    = "map"
	modeList   = "list"
)

type flags struct {
	rules       string
	mode        string
	kind        string
	explain     bool
	concurrency int
	logLevel    string
	prompts     string
	model       string
	timeout     time.Duration
	retries     int
}

// result is one output line.
type result struct {
	File   string `json:"file"`
	Result any    `json:"result,omitempty"`
	Plan   string `json:"plan,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "extract -r rules.yaml FILE...",
		Short:         "Extract fields from documents with a rules file",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.rules, "rules", "r", "", "YAML rules file (required)")
	fs.StringVar(&f.mode, "mode", modeAuto, "result shape: auto, string, map or list")
	fs.StringVar(&f.kind, "kind", "", "document kind override: text, html, xml or json")
	fs.BoolVar(&f.explain, "explain", false, "print the extraction plan instead of running it")
	fs.IntVarP(&f.concurrency, "concurrency", "c", 4, "files processed in parallel")
	fs.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&f.prompts, "prompts", "", "directory of .twig prompt templates for the model kind")
	fs.StringVar(&f.model, "model", "", "model name for the model kind")
	fs.DurationVar(&f.timeout, "model-timeout", 60*time.Second, "timeout of one model call")
	fs.IntVar(&f.retries, "model-retries", 2, "retries of a failed model call")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func run(ctx context.Context, f flags, files []string) error {
	_ = godotenv.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	switch f.mode {
	case modeAuto, modeString, modeMap, modeList:
	default:
		return fmt.Errorf("unknown mode %q", f.mode)
	}

	rules, err := extractors.LoadRulesFile(f.rules)
	if err != nil {
		return err
	}
	ruleOpts, err := modelKind(ctx, f, logger)
	if err != nil {
		return err
	}

	results := make([]result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.concurrency, 1))
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = process(f, rules, ruleOpts, file, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	var failed int
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// modelKind registers the model kind when a Gemini API key is available.
func modelKind(ctx context.Context, f flags, logger *slog.Logger) ([]extractors.RulesOption, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Debug("GEMINI_API_KEY not set, model kind disabled")
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	var opts []extractors.PromptOption
	if f.prompts != "" {
		opts = append(opts, extractors.WithFS(os.DirFS(f.prompts), "."))
	}
	prompts, err := extractors.NewStickPromptProvider(opts...)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	invoker := extractors.NewGenAIInvoker(client, logger)
	logger.Debug("model kind enabled", "model", f.model, "prompts", f.prompts)

	return []extractors.RulesOption{
		extractors.WithKindFactory("model", func(query string) extractors.Extractor {
			return extractors.NewModelExtractor(invoker, prompts, query, extractors.Model(f.model),
				extractors.WithModelTimeout(f.timeout),
				extractors.WithModelRetry(f.retries, time.Second),
				extractors.WithModelLogger(logger))
		}),
	}, nil
}

func process(f flags, rules *extractors.Rules, ruleOpts []extractors.RulesOption, file string, logger *slog.Logger) result {
	out := result{File: file}
	opts := []extractors.Option{extractors.WithLogger(logger.With("file", file))}
	if f.kind != "" {
		opts = append(opts, extractors.WithKind(extractors.Kind(f.kind)))
	}
	s, err := extractors.OnFile(file, opts...)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if err := rules.Apply(s, ruleOpts...); err != nil {
		out.Error = err.Error()
		return out
	}
	if f.explain {
		out.Plan = s.Explain()
		return out
	}

	out.Result, err = shape(s, f.mode, rules)
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func shape(s *extractors.Session, mode string, rules *extractors.Rules) (any, error) {
	if mode == modeAuto {
		mode = modeMap
		if rules.Split != nil {
			mode = modeList
		}
	}
	switch mode {
	case modeString:
		if len(rules.Fields) != 1 {
			return nil, errors.New("string mode needs exactly one field")
		}
		rec, err := s.AsRecord()
		if err != nil {
			return nil, err
		}
		if len(rec.Failures) > 0 {
			return nil, rec.Failures[0]
		}
		v, _ := rec.Get(rules.Fields[0].Name)
		return v, nil
	case modeList:
		return s.AsRecords()
	default:
		return s.AsRecord()
	}
}
