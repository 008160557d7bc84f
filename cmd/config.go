package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
	providerGroq   = "groq"
	providerNone   = "none"
)

type Config struct {
	Company        string          `mapstructure:"company" json:"company"`
	Questions      QuestionsConfig `mapstructure:"questions" json:"questions"`
	TranscriptsDir string          `mapstructure:"transcripts-dir" json:"transcripts-dir"`
	AI             AIConfig        `mapstructure:"ai" json:"ai"`
}

type QuestionsConfig struct {
	Min int `mapstructure:"min" json:"min"`
	Max int `mapstructure:"max" json:"max"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider" json:"provider"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length" json:"max-log-length"`
	Gemini       GeminiConfig  `mapstructure:"gemini" json:"gemini"`
	OpenAI       OpenAIConfig  `mapstructure:"openai" json:"openai"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file" json:"api-key-file"`
	Model      string `mapstructure:"model" json:"model"`
	MaxRetries int    `mapstructure:"max-retries" json:"max-retries"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file" json:"api-key-file"`
	Model      string `mapstructure:"model" json:"model"`
	BaseURL    string `mapstructure:"base-url" json:"base-url"`
	MaxRetries int    `mapstructure:"max-retries" json:"max-retries"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("company", "TalentScout")
	v.SetDefault("questions.min", 3)
	v.SetDefault("questions.max", 5)
	v.SetDefault("transcripts-dir", "")
	v.SetDefault("ai.provider", providerGemini)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.model", "")
	v.SetDefault("ai.openai.base-url", "")
	v.SetDefault("ai.openai.max-retries", 2)
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.AllSettings())
}

// decodeConfig turns the merged settings into a Config. Durations may be
// written as "30s" and numbers as strings, as env variables deliver them.
func decodeConfig(settings map[string]any) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Questions.Min < 1 {
		errs = append(errs, fmt.Errorf("questions.min must be at least 1, got %d", c.Questions.Min))
	}
	if c.Questions.Max < c.Questions.Min {
		errs = append(errs, fmt.Errorf("questions.max (%d) must not be less than questions.min (%d)", c.Questions.Max, c.Questions.Min))
	}

	switch c.AI.Provider {
	case providerGemini, providerOpenAI, providerGroq, providerNone:
	default:
		errs = append(errs, fmt.Errorf("unsupported ai provider %q", c.AI.Provider))
	}

	if c.AI.Timeout < 0 {
		errs = append(errs, fmt.Errorf("ai.timeout must not be negative, got %s", c.AI.Timeout))
	}

	return errors.Join(errs...)
}
