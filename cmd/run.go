package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/assistant"
	"github.com/spigell/screener/internal/intake"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/questionbank"
	"github.com/spigell/screener/internal/transcript"
)

const resetCommand = "/reset"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a screening conversation in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Uint64("seed", 0, "seed for drawing the number of technical questions (0 draws a random one)")
	runCmd.Flags().String("transcripts-dir", "", "directory to save finished conversations to. Default is unset.")
	runCmd.Flags().String("resume", "", "session id of a saved transcript to continue")

	viper.BindPFlag("transcripts-dir", runCmd.Flags().Lookup("transcripts-dir"))
}

// run is the interactive screening loop.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), viper.GetString("log-file"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			logger.Fatal("building ai generator", zap.Error(err))
		}
		logger.Warn("text generation disabled, using built-in texts", zap.Error(err))
		generator = nil
	}

	bank, err := questionbank.Default()
	if err != nil {
		logger.Fatal("loading question bank", zap.Error(err))
	}

	intakeCfg := intake.Config{
		MinQuestions: config.Questions.Min,
		MaxQuestions: config.Questions.Max,
	}
	if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
		intakeCfg.Rand = rand.New(rand.NewPCG(seed, seed))
	}

	a := assistant.New(assistant.Config{
		Company:      config.Company,
		Timeout:      config.AI.Timeout,
		MaxLogLength: config.AI.MaxLogLength,
		Intake:       intakeCfg,
	}, generator, bank, logger)

	if id, _ := cmd.Flags().GetString("resume"); id != "" {
		session, err := resumeSession(config.TranscriptsDir, id, intakeCfg)
		if err != nil {
			logger.Fatal("resuming a session", zap.Error(err), zap.String("session_id", id))
		}

		reply, err := a.Resume(ctx, session)
		if err != nil {
			logger.Fatal("resuming a session", zap.Error(err), zap.String("session_id", id))
		}
		say(reply)

		if reply.Stage == intake.StageEnded {
			logger.Info("exiting", zap.String("reason", "conversation already ended"))
			return
		}
	} else {
		say(a.Start(ctx))
	}

	for {
		input, err := ask(a.Session())
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				archive(a.Session(), config.TranscriptsDir, logger)
				logger.Info("exiting", zap.String("reason", "interrupted"))
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		if strings.EqualFold(strings.TrimSpace(input), resetCommand) {
			archive(a.Session(), config.TranscriptsDir, logger)
			say(a.Reset(ctx))
			continue
		}

		reply, err := a.Reply(ctx, input)
		if err != nil {
			logger.Error("handling the message", zap.Error(err))
			continue
		}

		say(reply)

		if reply.Done {
			archive(a.Session(), config.TranscriptsDir, logger)
		}

		if reply.Stage == intake.StageEnded {
			logger.Info("exiting", zap.String("reason", "conversation ended"))
			return
		}
	}
}

// resumeSession restores a session archived under dir.
func resumeSession(dir, id string, cfg intake.Config) (*intake.Session, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("resuming needs a transcripts directory")
	}

	path, err := transcript.Path(dir, id)
	if err != nil {
		return nil, err
	}

	record, err := transcript.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	return record.Resume(cfg)
}

func ask(s *intake.Session) (string, error) {
	step, total := s.Progress()
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("[%d/%d %s] You", step, total, s.Stage().Title()),
	}
	return prompt.Run()
}

func say(reply assistant.Reply) {
	fmt.Printf("\nAssistant: %s\n\n", reply.Text)
}

// archive saves the session when a transcripts directory is configured and
// anything was said.
func archive(s *intake.Session, dir string, logger *zap.Logger) {
	if strings.TrimSpace(dir) == "" || len(s.Log()) == 0 {
		return
	}

	path, err := transcript.Save(dir, s, time.Now())
	if err != nil {
		logger.Error("saving transcript", zap.Error(err), zap.String("session_id", s.ID()))
		return
	}

	logger.Info("saved transcript", zap.String("filename", path), zap.String("session_id", s.ID()))
}
