package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/ai/gemini"
	"github.com/spigell/screener/internal/ai/openai"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/secrets"
)

// newGenerator builds the configured provider. Missing credentials are
// reported as ai.ErrNotConfigured so callers can run without generation.
func newGenerator(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Generator, error) {
	switch cfg.Provider {
	case providerNone:
		return nil, fmt.Errorf("ai provider is set to %q: %w", providerNone, ai.ErrNotConfigured)
	case providerGemini:
		apiKey, err := loadKey(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  []string{"GEMINI_API_KEY_FILE", "GEMINI_API_KEY"},
		}, "set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}

		genLogger := logger.WithProvider(log, providerGemini, cfg.Gemini.Model).With(
			zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
		)

		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case providerOpenAI, providerGroq:
		src := secrets.Source{
			Name: "openai api key",
			File: cfg.OpenAI.APIKeyFile,
			Env:  []string{"OPENAI_API_KEY_FILE", "OPENAI_API_KEY"},
		}
		hint := "set ai.openai.api-key-file, OPENAI_API_KEY_FILE or OPENAI_API_KEY"
		baseURL := cfg.OpenAI.BaseURL

		if cfg.Provider == providerGroq {
			src.Name = "groq api key"
			src.Env = []string{"GROQ_API_KEY_FILE", "GROQ_API_KEY"}
			hint = "set ai.openai.api-key-file, GROQ_API_KEY_FILE or GROQ_API_KEY"
			if baseURL == "" {
				baseURL = openai.GroqBaseURL
			}
		}

		apiKey, err := loadKey(src, hint)
		if err != nil {
			return nil, err
		}

		generator, err := openai.NewGenerator(openai.Options{
			APIKey:     apiKey,
			Model:      cfg.OpenAI.Model,
			BaseURL:    baseURL,
			MaxRetries: cfg.OpenAI.MaxRetries,
		}, logger.WithProvider(log, cfg.Provider, cfg.OpenAI.Model))
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func loadKey(src secrets.Source, hint string) (string, error) {
	key, err := secrets.Load(src)
	if errors.Is(err, secrets.ErrMissing) {
		return "", fmt.Errorf("%w: %w (%s)", ai.ErrNotConfigured, err, hint)
	}
	return key, err
}
