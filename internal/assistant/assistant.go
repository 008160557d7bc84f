// Package assistant drives an intake session: it turns every candidate message
// into a Submit call and produces the assistant's reply, generated when a
// provider is configured and taken from static texts otherwise.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/intake"
	"github.com/spigell/screener/internal/logger"
	"github.com/spigell/screener/internal/questionbank"
	"github.com/spigell/screener/internal/utils"
	"github.com/spigell/screener/internal/validate"
)

const (
	DefaultCompany      = "TalentScout"
	defaultTimeout      = 30 * time.Second
	defaultMaxLogLength = 200
)

// Mode selects the instruction block and generation settings of a reply.
type Mode string

const (
	ModeGreeting   Mode = "greeting"
	ModeCollector  Mode = "collector"
	ModeQuestion   Mode = "question"
	ModeConclusion Mode = "conclusion"
	ModeExit       Mode = "exit"
	ModeFallback   Mode = "fallback"
)

type generation struct {
	temperature float32
	maxTokens   int
}

var settings = map[Mode]generation{
	ModeGreeting:   {temperature: 0.7, maxTokens: 150},
	ModeCollector:  {temperature: 0.7, maxTokens: 200},
	ModeQuestion:   {temperature: 0.8, maxTokens: 200},
	ModeConclusion: {temperature: 0.7, maxTokens: 300},
	ModeExit:       {temperature: 0.7, maxTokens: 150},
	ModeFallback:   {temperature: 0.7, maxTokens: 150},
}

type Config struct {
	Company string
	// Timeout bounds a single generation call.
	Timeout      time.Duration
	MaxLogLength int
	Intake       intake.Config
}

// Reply is what the assistant answers to one candidate message.
type Reply struct {
	Text  string
	Stage intake.Stage
	// Rejected is set when the input was refused and the stage is retried.
	Rejected bool
	// Done is set once nothing more will be collected.
	Done bool
}

type Assistant struct {
	session   *intake.Session
	generator ai.Generator
	bank      *questionbank.Bank
	rand      *rand.Rand

	company   string
	timeout   time.Duration
	maxLogLen int
	logger    *zap.Logger
}

// New creates an assistant with a fresh session. A nil generator makes every
// reply come from the static texts and the question bank.
func New(cfg Config, generator ai.Generator, bank *questionbank.Bank, log *zap.Logger) *Assistant {
	if strings.TrimSpace(cfg.Company) == "" {
		cfg.Company = DefaultCompany
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if cfg.Intake.Rand == nil {
		cfg.Intake.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Assistant{
		session:   intake.New(cfg.Intake),
		generator: generator,
		bank:      bank,
		rand:      cfg.Intake.Rand,
		company:   strings.TrimSpace(cfg.Company),
		timeout:   cfg.Timeout,
		maxLogLen: cfg.MaxLogLength,
		logger:    logger.WithFields(log),
	}
}

// Session exposes the underlying session for progress display and archiving.
func (a *Assistant) Session() *intake.Session { return a.session }

// Start opens the conversation with the greeting.
func (a *Assistant) Start(ctx context.Context) Reply {
	text := a.generate(ctx, ModeGreeting, greetingPrompt(a.company), nil, staticGreeting(a.company))
	a.session.Say(text)
	a.logStage("conversation started")

	return Reply{Text: text, Stage: a.session.Stage()}
}

// Resume continues an archived session in place of the current one and
// repeats whatever the candidate still owes.
func (a *Assistant) Resume(ctx context.Context, s *intake.Session) (Reply, error) {
	a.session = s
	a.logStage("conversation resumed")

	stage := s.Stage()
	switch {
	case stage == intake.StageGreeting:
		return a.Start(ctx), nil
	case stage.IsCollection():
		text := staticResumed + " " + staticAsk(stage)
		s.Say(text)
		return Reply{Text: text, Stage: stage}, nil
	case stage == intake.StageTechnicalQuestions:
		if q := s.PendingQuestion(); q != "" {
			text := staticResumed + " " + q
			s.Say(text)
			return Reply{Text: text, Stage: stage}, nil
		}
		text, err := a.askQuestion(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text, Stage: stage}, nil
	case stage == intake.StageConclusion:
		return Reply{Text: staticConcluded, Stage: stage, Done: true}, nil
	default:
		return Reply{Text: staticEnded, Stage: stage, Done: true}, nil
	}
}

// Reset discards the session and greets again.
func (a *Assistant) Reset(ctx context.Context) Reply {
	old := a.session.ID()
	a.session.Reset()
	a.logger.Info("session reset", zap.String("previous_session_id", old))
	return a.Start(ctx)
}

// Reply handles one candidate message. Only caller misuse and broken session
// state are returned as errors; generation failures fall back to static text.
func (a *Assistant) Reply(ctx context.Context, input string) (Reply, error) {
	res, err := a.session.Submit(input)
	if err != nil {
		return a.rejected(ctx, input, err)
	}

	if res.Stage != res.Previous {
		a.logStage("stage changed", zap.String("previous_stage", res.Previous.String()))
	}

	switch {
	case res.Exited:
		text := a.generate(ctx, ModeExit, exitPrompt(a.company), nil, staticExit)
		a.session.Say(text)
		return Reply{Text: text, Stage: res.Stage, Done: true}, nil
	case res.Informational:
		if res.Stage == intake.StageConclusion {
			return Reply{Text: staticConcluded, Stage: res.Stage, Done: true}, nil
		}
		return Reply{Text: staticEnded, Stage: res.Stage, Done: true}, nil
	case res.NeedQuestion:
		text, err := a.askQuestion(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: text, Stage: res.Stage}, nil
	case res.Stage == intake.StageConclusion:
		candidate := a.session.Candidate()
		text := a.generate(ctx, ModeConclusion, conclusionPrompt(a.company, candidate), nil, staticConclusion(candidate))
		a.session.Say(text)
		return Reply{Text: text, Stage: res.Stage, Done: true}, nil
	default:
		messages := []ai.Message{{Role: ai.RoleUser, Content: input}}
		prompt := collectorPrompt(a.company, res.Stage, a.session.Candidate())
		text := a.generate(ctx, ModeCollector, prompt, messages, staticAsk(res.Stage))
		a.session.Say(text)
		return Reply{Text: text, Stage: res.Stage}, nil
	}
}

func (a *Assistant) rejected(ctx context.Context, input string, err error) (Reply, error) {
	reason, ok := intake.IsRejection(err)
	if !ok {
		return Reply{}, fmt.Errorf("submitting at %s: %w", a.session.Stage(), err)
	}

	stage := a.session.Stage()
	a.logger.Debug("input rejected",
		append(logger.SessionFields(a.session.ID(), stage.String(), 0, 0), zap.String("reason", reason))...,
	)

	var text string
	if errors.Is(err, intake.ErrEmptyAnswer) {
		messages := []ai.Message{{Role: ai.RoleUser, Content: input}}
		fallback := reason
		if q := a.session.PendingQuestion(); q != "" {
			fallback = reason + " " + q
		}
		text = a.generate(ctx, ModeFallback, fallbackPrompt(a.company, stage), messages, fallback)
	} else {
		text = fmt.Sprintf("I'm sorry, but that doesn't seem right. %s Please try again.", reason)
	}

	a.session.Say(text)
	return Reply{Text: text, Stage: stage, Rejected: true}, nil
}

// askQuestion produces the next technical question and hands it to the
// session. The question bank covers generation failures.
func (a *Assistant) askQuestion(ctx context.Context) (string, error) {
	loop := a.session.Loop()
	techStack := a.session.Candidate()[validate.FieldTechStack]

	asked := make([]string, 0, len(loop.Pairs))
	for _, qa := range loop.Pairs {
		asked = append(asked, qa.Question)
	}

	fallback := questionbank.OpenQuestion
	if a.bank != nil {
		fallback = a.bank.Pick(loop.Techs, asked, a.rand)
	}

	prompt := questionPrompt(a.company, techStack, a.session.QuestionNumber(), loop.Target, loop.Pairs)
	question := a.generate(ctx, ModeQuestion, prompt, questionHistory(loop.Pairs), fallback)

	if err := a.session.SetQuestion(question); err != nil {
		return "", fmt.Errorf("setting question %d: %w", a.session.QuestionNumber(), err)
	}
	a.session.Say(question)

	a.logger.Debug("technical question asked",
		zap.String(logger.FieldSession, a.session.ID()),
		zap.Int("number", a.session.QuestionNumber()),
		zap.Int("total", loop.Target),
	)

	return question, nil
}

func (a *Assistant) generate(ctx context.Context, mode Mode, system string, messages []ai.Message, fallback string) string {
	if a.generator == nil {
		return fallback
	}

	cfg := settings[mode]
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Debug("generation request",
		zap.String("mode", string(mode)),
		zap.Int("prompt_length", utf8.RuneCountInString(system)),
		zap.String("prompt_preview", utils.TruncateForLog(system, a.maxLogLen)),
		zap.Int("messages", len(messages)),
	)

	output, err := a.generator.Generate(ctx, ai.Request{
		System:      system,
		Messages:    messages,
		Temperature: cfg.temperature,
		MaxTokens:   cfg.maxTokens,
	})
	if err == nil {
		output = cleanReply(output)
	}
	if err != nil || output == "" {
		a.logger.Warn("generation failed, using fallback text",
			zap.String("mode", string(mode)),
			zap.String(logger.FieldModel, a.generator.Model()),
			zap.Error(err),
		)
		return fallback
	}

	a.logger.Debug("generation response",
		zap.String("mode", string(mode)),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, a.maxLogLen)),
	)

	return output
}

// cleanReply strips code fences and wrapping quotes models sometimes add.
func cleanReply(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```")
		if idx := strings.LastIndex(out, "```"); idx != -1 {
			out = out[:idx]
		}
	}
	out = strings.Trim(strings.TrimSpace(out), "`")
	if len(out) >= 2 && out[0] == '"' && out[len(out)-1] == '"' {
		out = out[1 : len(out)-1]
	}
	return strings.TrimSpace(out)
}

func (a *Assistant) logStage(msg string, extra ...zap.Field) {
	step, total := a.session.Progress()
	fields := logger.SessionFields(a.session.ID(), a.session.Stage().String(), step, total)
	a.logger.Info(msg, append(fields, extra...)...)
}
