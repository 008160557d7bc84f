package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/questionbank"
)

const (
	statusOK      = "ok"
	statusMissing = "missing"
	statusFailed  = "failed"
)

var errCheckFailed = errors.New("setup check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configuration and the ai provider credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ping, _ := cmd.Flags().GetBool("ping")
		return check(cmd.Context(), cmd.OutOrStdout(), ping)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("ping", false, "send a short request to the ai provider")
}

type checkResult struct {
	Name   string
	Status string
	Detail string
}

type generatorFactory func(ctx context.Context, cfg AIConfig, log *zap.Logger) (ai.Generator, error)

func check(ctx context.Context, out io.Writer, ping bool) error {
	var results []checkResult

	config, err := getConfig()
	if err != nil {
		results = append(results, checkResult{Name: "config", Status: statusFailed, Detail: err.Error()})
	} else {
		results = runChecks(ctx, config, newGenerator, ping)
	}

	failed := false
	for _, r := range results {
		line := fmt.Sprintf("%-14s %-8s", r.Name, r.Status)
		if r.Detail != "" {
			line += " " + r.Detail
		}
		fmt.Fprintln(out, strings.TrimSpace(line))
		if r.Status == statusFailed {
			failed = true
		}
	}

	if failed {
		return errCheckFailed
	}
	return nil
}

// runChecks inspects everything run needs. A missing provider credential is
// reported but does not fail the check since run works without generation.
func runChecks(ctx context.Context, config *Config, build generatorFactory, ping bool) []checkResult {
	results := []checkResult{{
		Name:   "config",
		Status: statusOK,
		Detail: fmt.Sprintf("company=%s questions=%d-%d", config.Company, config.Questions.Min, config.Questions.Max),
	}}

	if bank, err := questionbank.Default(); err != nil {
		results = append(results, checkResult{Name: "question bank", Status: statusFailed, Detail: err.Error()})
	} else {
		results = append(results, checkResult{
			Name:   "question bank",
			Status: statusOK,
			Detail: fmt.Sprintf("%d technologies", len(bank.Technologies())),
		})
	}

	results = append(results, checkTranscriptsDir(config.TranscriptsDir))

	generator, err := build(ctx, config.AI, zap.NewNop())
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		results = append(results, checkResult{Name: "ai provider", Status: statusMissing, Detail: err.Error()})
		return results
	case err != nil:
		results = append(results, checkResult{Name: "ai provider", Status: statusFailed, Detail: err.Error()})
		return results
	}

	results = append(results, checkResult{
		Name:   "ai provider",
		Status: statusOK,
		Detail: fmt.Sprintf("%s (%s)", config.AI.Provider, generator.Model()),
	})

	if ping {
		results = append(results, pingGenerator(ctx, generator, config.AI))
	}

	return results
}

func checkTranscriptsDir(dir string) checkResult {
	result := checkResult{Name: "transcripts", Status: statusOK}
	if strings.TrimSpace(dir) == "" {
		result.Detail = "disabled"
		return result
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = statusFailed
		result.Detail = err.Error()
		return result
	}

	probe, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		result.Status = statusFailed
		result.Detail = err.Error()
		return result
	}
	probe.Close()
	os.Remove(probe.Name())

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	result.Detail = abs
	return result
}

func pingGenerator(ctx context.Context, generator ai.Generator, cfg AIConfig) checkResult {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	reply, err := generator.Generate(ctx, ai.Request{
		System:    "Reply with the single word OK.",
		Messages:  []ai.Message{{Role: ai.RoleUser, Content: "ping"}},
		MaxTokens: 10,
	})
	if err != nil {
		return checkResult{Name: "ai ping", Status: statusFailed, Detail: err.Error()}
	}

	return checkResult{Name: "ai ping", Status: statusOK, Detail: strings.TrimSpace(reply)}
}
