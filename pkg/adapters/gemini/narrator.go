// Package gemini implements ports.Narrator on Google's Gemini models.
package gemini

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"text/template"

	"github.com/aretw0/gamemaster/internal/logging"
	"github.com/aretw0/gamemaster/pkg/ports"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

//go:embed prompts/*.txt
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.txt"))

// ErrEmptyResponse is returned when the model streams no text at all.
var ErrEmptyResponse = errors.New("no content returned from Gemini")

// Narrator streams narration from a Gemini model.
type Narrator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// Option configures the Narrator.
type Option func(*config)

type config struct {
	model       string
	temperature *float32
	logger      *slog.Logger
}

// WithModel selects the Gemini model.
func WithModel(name string) Option {
	return func(c *config) {
		if name != "" {
			c.model = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *config) { c.temperature = &t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New connects to Gemini with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Narrator, error) {
	cfg := config{model: DefaultModel, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.model)
	if cfg.temperature != nil {
		model.SetTemperature(*cfg.temperature)
	}
	return &Narrator{client: client, model: model, logger: cfg.logger}, nil
}

func (n *Narrator) Close() error {
	return n.client.Close()
}

// Generate streams the model's answer to the prompt built for req.
func (n *Narrator) Generate(ctx context.Context, req ports.NarrationRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		prompt, err := Prompt(req)
		if err != nil {
			yield("", err)
			return
		}

		n.logger.Debug("gemini narration", "kind", req.Kind, "session_id", req.SessionID, "prompt_size", len(prompt))
		stream := n.model.GenerateContentStream(ctx, genai.Text(prompt))

		var produced bool
		for {
			resp, err := stream.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			for _, chunk := range texts(resp) {
				produced = true
				if !yield(chunk, nil) {
					return
				}
			}
		}
		if !produced {
			yield("", ErrEmptyResponse)
		}
	}
}

func texts(resp *genai.GenerateContentResponse) []string {
	var out []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok && text != "" {
				out = append(out, string(text))
			}
		}
	}
	return out
}

// Prompt renders the template for req.Kind. Unknown kinds fall back to
// the scene template.
func Prompt(req ports.NarrationRequest) (string, error) {
	name := string(req.Kind) + ".txt"
	if prompts.Lookup(name) == nil {
		name = string(ports.NarrateScene) + ".txt"
	}

	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, req); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", req.Kind, err)
	}
	return buf.String(), nil
}
