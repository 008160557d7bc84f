// Package openai serves ai.Generator through the OpenAI chat completions API
// and any compatible endpoint such as Groq.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
)

const (
	defaultModel = "gpt-4o-mini"
	// GroqBaseURL is the OpenAI compatible endpoint of Groq.
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama-3.1-8b-instant"
)

type completer interface {
	New(ctx context.Context, body openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

type Generator struct {
	completions completer
	model       string
	logger      *zap.Logger
}

// Options configure NewGenerator.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
}

// NewGenerator builds a chat completions client. An empty BaseURL targets OpenAI.
func NewGenerator(opts Options, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required: %w", ai.ErrNotConfigured)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}

	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	if opts.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
		if baseURL == GroqBaseURL {
			model = defaultGroqModel
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client := openaisdk.NewClient(reqOpts...)

	return &Generator{
		completions: &client.Chat.Completions,
		model:       model,
		logger:      logger,
	}, nil
}

// Generate sends the instruction block as the system message followed by the
// conversation and returns the first choice.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.completions == nil {
		return "", errors.New("openai generator is not initialized")
	}

	params := buildParams(g.model, req)
	g.logger.Debug("openai chat completion request",
		zap.Int("messages", len(params.Messages)),
		zap.Int("max_tokens", req.MaxTokens),
	)

	resp, err := g.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", errors.New("openai api returned empty response")
	}

	return output, nil
}

func buildParams(model string, req ai.Request) openaisdk.ChatCompletionNewParams {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case ai.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openaisdk.Float(float64(req.Temperature))
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	return params
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
