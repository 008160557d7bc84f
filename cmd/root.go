package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "screener"
)

// Environment variables consulted for config keys, first match wins.
var envBindings = map[string][]string{
	"company":         {"SCREENER_COMPANY", "COMPANY_NAME"},
	"questions.min":   {"SCREENER_MIN_QUESTIONS", "MIN_QUESTIONS"},
	"questions.max":   {"SCREENER_MAX_QUESTIONS", "MAX_QUESTIONS"},
	"transcripts-dir": {"SCREENER_TRANSCRIPTS_DIR"},
	"ai.provider":     {"SCREENER_AI_PROVIDER", "LLM_PROVIDER"},
	"ai.gemini.model": {"GEMINI_MODEL"},
	"ai.openai.model": {"OPENAI_MODEL", "MODEL_NAME"},
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "screener is a terminal hiring assistant that runs the initial screening of technical candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, envs := range envBindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			log.Fatalf("binding environment variables for %s: %v", key, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// Only run and check need the configuration.
	if runCmd.CalledAs() == "" && checkCmd.CalledAs() == "" {
		return
	}

	// A missing .env is fine, variables may come from the environment itself.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error. Without an
	// explicit --config the defaults are enough to start.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}
