package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/intake"
	"github.com/spigell/screener/internal/questionbank"
	"github.com/spigell/screener/internal/validate"
)

var profile = []string{
	"Jane Doe",
	"jane@example.com",
	"+1 234 567 8900",
	"5 years",
	"Data Engineer",
	"Berlin, Germany",
	"Python, Go",
}

type stubGenerator struct {
	requests []ai.Request
	replies  []string
	err      error
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return fmt.Sprintf("generated %d?", len(s.requests)), nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func newAssistant(t *testing.T, generator ai.Generator, log *zap.Logger) *Assistant {
	t.Helper()

	bank, err := questionbank.Default()
	require.NoError(t, err)

	cfg := Config{
		Company: "Acme",
		Intake: intake.Config{
			MinQuestions: 2,
			MaxQuestions: 2,
			Rand:         rand.New(rand.NewPCG(1, 1)),
		},
	}

	return New(cfg, generator, bank, log)
}

func submitProfile(t *testing.T, a *Assistant) Reply {
	t.Helper()

	_, err := a.Reply(context.Background(), "hi")
	require.NoError(t, err)

	var reply Reply
	for _, input := range profile {
		reply, err = a.Reply(context.Background(), input)
		require.NoError(t, err, input)
		require.False(t, reply.Rejected, input)
	}
	return reply
}

func TestStaticConversation(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t, nil, nil)

	greeting := a.Start(ctx)
	assert.Contains(t, greeting.Text, "Acme")
	assert.Equal(t, intake.StageGreeting, greeting.Stage)

	reply, err := a.Reply(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, staticAsks[intake.StageCollectName], reply.Text)

	reply, err = a.Reply(ctx, "R2-D2")
	require.NoError(t, err)
	assert.True(t, reply.Rejected)
	assert.True(t, strings.HasPrefix(reply.Text, "I'm sorry, but that doesn't seem right."))
	assert.Equal(t, intake.StageCollectName, reply.Stage)

	for _, input := range profile[:len(profile)-1] {
		reply, err = a.Reply(ctx, input)
		require.NoError(t, err)
		require.False(t, reply.Rejected, input)
	}
	assert.Equal(t, staticAsks[intake.StageCollectTechStack], reply.Text)

	reply, err = a.Reply(ctx, profile[len(profile)-1])
	require.NoError(t, err)
	require.Equal(t, intake.StageTechnicalQuestions, reply.Stage)
	first := reply.Text
	assert.Equal(t, first, a.Session().PendingQuestion())

	python, ok := a.bank.Lookup("Python")
	require.True(t, ok)
	assert.Contains(t, python, first)

	reply, err = a.Reply(ctx, "   ")
	require.NoError(t, err)
	assert.True(t, reply.Rejected)
	assert.Contains(t, reply.Text, first)

	reply, err = a.Reply(ctx, "Tuples are immutable.")
	require.NoError(t, err)
	require.Equal(t, intake.StageTechnicalQuestions, reply.Stage)
	assert.NotEqual(t, first, reply.Text)

	reply, err = a.Reply(ctx, "Goroutines are cheap threads.")
	require.NoError(t, err)
	assert.Equal(t, intake.StageConclusion, reply.Stage)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Text, "Thank you, Jane Doe!")
	assert.Contains(t, reply.Text, "- Tech Stack: Python, Go\n")

	reply, err = a.Reply(ctx, "thanks!")
	require.NoError(t, err)
	assert.Equal(t, staticConcluded, reply.Text)

	log := a.Session().Log()
	assert.Equal(t, intake.RoleAssistant, log[0].Role)
	assert.Equal(t, reply.Stage, a.Session().Stage())
}

func TestGeneratedRepliesUseModeSettings(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{}
	a := newAssistant(t, gen, nil)

	a.Start(ctx)
	submitProfile(t, a)

	_, err := a.Reply(ctx, "first answer")
	require.NoError(t, err)
	_, err = a.Reply(ctx, "second answer")
	require.NoError(t, err)
	require.Equal(t, intake.StageConclusion, a.Session().Stage())

	// greeting, 7 collector replies, 2 questions, conclusion
	require.Len(t, gen.requests, 11)

	greeting := gen.requests[0]
	assert.Equal(t, float32(0.7), greeting.Temperature)
	assert.Equal(t, 150, greeting.MaxTokens)
	assert.Contains(t, greeting.System, "hiring assistant for Acme")
	assert.Empty(t, greeting.Messages)

	collector := gen.requests[2]
	assert.Equal(t, 200, collector.MaxTokens)
	assert.Contains(t, collector.System, "CURRENT STAGE: Collect Email")
	assert.Contains(t, collector.System, "- Full Name: Jane Doe")
	assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "Jane Doe"}}, collector.Messages)

	firstQuestion := gen.requests[8]
	assert.Equal(t, float32(0.8), firstQuestion.Temperature)
	assert.Contains(t, firstQuestion.System, "Question 1 of 2")
	assert.Contains(t, firstQuestion.System, "relevant to: Python, Go")
	assert.Empty(t, firstQuestion.Messages)

	secondQuestion := gen.requests[9]
	assert.Contains(t, secondQuestion.System, "Question 2 of 2")
	assert.Contains(t, secondQuestion.System, "A1: first answer")
	require.Len(t, secondQuestion.Messages, 2)
	assert.Equal(t, ai.RoleAssistant, secondQuestion.Messages[1].Role)
	assert.Equal(t, "A: first answer", secondQuestion.Messages[1].Content)

	conclusion := gen.requests[10]
	assert.Equal(t, 300, conclusion.MaxTokens)
	assert.Contains(t, conclusion.System, "Collected Information:")

	pairs := a.Session().Loop().Pairs
	require.Len(t, pairs, 2)
	assert.Equal(t, "generated 9?", pairs[0].Question)
}

func TestGenerationFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	a := newAssistant(t, gen, zap.New(core))

	greeting := a.Start(ctx)
	assert.Equal(t, staticGreeting("Acme"), greeting.Text)

	reply := submitProfile(t, a)
	python, _ := a.bank.Lookup("Python")
	assert.Contains(t, python, reply.Text)

	warnings := observed.FilterMessage("generation failed, using fallback text").All()
	require.NotEmpty(t, warnings)
	ctxMap := warnings[0].ContextMap()
	assert.Equal(t, "greeting", ctxMap["mode"])
	assert.Equal(t, "quota exceeded", ctxMap["error"])
}

func TestBlankGenerationFallsBack(t *testing.T) {
	gen := &stubGenerator{replies: []string{"  ``` ```  "}}
	a := newAssistant(t, gen, nil)

	assert.Equal(t, staticGreeting("Acme"), a.Start(context.Background()).Text)
}

func TestExitEndsConversation(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t, nil, nil)
	a.Start(ctx)

	_, err := a.Reply(ctx, "hello")
	require.NoError(t, err)

	reply, err := a.Reply(ctx, "I want to quit")
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Equal(t, intake.StageEnded, reply.Stage)
	assert.Equal(t, staticExit, reply.Text)

	reply, err = a.Reply(ctx, "hello again")
	require.NoError(t, err)
	assert.Equal(t, staticEnded, reply.Text)
}

func TestPromptPreviewIsTruncated(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	bank, err := questionbank.Default()
	require.NoError(t, err)

	gen := &stubGenerator{replies: []string{"Welcome to Acme, are you ready to start the screening?"}}
	a := New(Config{Company: "Acme", MaxLogLength: 12}, gen, bank, zap.New(core))
	a.Start(context.Background())

	requests := observed.FilterMessage("generation request").All()
	require.Len(t, requests, 1)
	preview := requests[0].ContextMap()["prompt_preview"].(string)
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Equal(t, 12+len("..."), utf8.RuneCountInString(preview))
	assert.Greater(t, requests[0].ContextMap()["prompt_length"], int64(12))

	responses := observed.FilterMessage("generation response").All()
	require.Len(t, responses, 1)
	assert.Equal(t, "Welcome to A...", responses[0].ContextMap()["response_preview"])
}

func TestStageChangesAreLogged(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	a := newAssistant(t, nil, zap.New(core))
	a.Start(context.Background())

	_, err := a.Reply(context.Background(), "hi")
	require.NoError(t, err)

	entries := observed.FilterMessage("stage changed").All()
	require.Len(t, entries, 1)
	ctxMap := entries[0].ContextMap()
	assert.Equal(t, a.Session().ID(), ctxMap["session_id"])
	assert.Equal(t, "collect_name", ctxMap["stage"])
	assert.Equal(t, "greeting", ctxMap["previous_stage"])
	assert.Equal(t, "1/10", ctxMap["progress"])
}

func TestResetStartsOver(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t, nil, nil)
	a.Start(ctx)
	submitProfile(t, a)
	old := a.Session().ID()

	reply := a.Reset(ctx)
	assert.Equal(t, intake.StageGreeting, reply.Stage)
	assert.NotEqual(t, old, a.Session().ID())
	assert.Empty(t, a.Session().Candidate())
	assert.Len(t, a.Session().Log(), 1)
}

func TestResumeContinuesArchivedSession(t *testing.T) {
	ctx := context.Background()
	first := newAssistant(t, nil, nil)
	first.Start(ctx)
	for _, input := range append([]string{"hi"}, profile[:2]...) {
		_, err := first.Reply(ctx, input)
		require.NoError(t, err)
	}

	restored, err := intake.Restore(first.Session().Snapshot(), intake.Config{MinQuestions: 2, MaxQuestions: 2})
	require.NoError(t, err)

	a := newAssistant(t, nil, nil)
	reply, err := a.Resume(ctx, restored)
	require.NoError(t, err)
	assert.Same(t, restored, a.Session())
	assert.Equal(t, first.Session().ID(), a.Session().ID())
	assert.Equal(t, intake.StageCollectPhone, reply.Stage)
	assert.Equal(t, staticResumed+" "+staticAsks[intake.StageCollectPhone], reply.Text)

	for _, input := range profile[2:] {
		reply, err = a.Reply(ctx, input)
		require.NoError(t, err)
		require.False(t, reply.Rejected, input)
	}
	assert.Equal(t, intake.StageTechnicalQuestions, reply.Stage)
	assert.Equal(t, "Jane Doe", a.Session().Candidate()[validate.FieldName])
}

func TestResumeRepeatsPendingQuestion(t *testing.T) {
	ctx := context.Background()
	first := newAssistant(t, nil, nil)
	first.Start(ctx)
	submitProfile(t, first)
	pending := first.Session().PendingQuestion()
	require.NotEmpty(t, pending)

	restored, err := intake.Restore(first.Session().Snapshot(), intake.Config{})
	require.NoError(t, err)

	a := newAssistant(t, nil, nil)
	reply, err := a.Resume(ctx, restored)
	require.NoError(t, err)
	assert.Equal(t, intake.StageTechnicalQuestions, reply.Stage)
	assert.Equal(t, staticResumed+" "+pending, reply.Text)
	assert.Equal(t, pending, a.Session().PendingQuestion())

	_, err = first.Reply(ctx, "bye")
	require.NoError(t, err)
	ended, err := intake.Restore(first.Session().Snapshot(), intake.Config{})
	require.NoError(t, err)

	reply, err = a.Resume(ctx, ended)
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Equal(t, staticEnded, reply.Text)
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{input: "  What is a channel?  ", expect: "What is a channel?"},
		{input: "```\nWhat is a slice?\n```", expect: "What is a slice?"},
		{input: "\"What is a map?\"", expect: "What is a map?"},
		{input: "`inline`", expect: "inline"},
		{input: "   ", expect: ""},
	}

	for _, tt := range tests {
		if got := cleanReply(tt.input); got != tt.expect {
			t.Fatalf("cleanReply(%q): expected %q, got %q", tt.input, tt.expect, got)
		}
	}
}

func TestPromptsAreFilled(t *testing.T) {
	for name, prompt := range map[string]string{
		"greeting":   greetingPrompt("Acme"),
		"collector":  collectorPrompt("Acme", intake.StageCollectPhone, nil),
		"question":   questionPrompt("Acme", "Go", 1, 3, nil),
		"fallback":   fallbackPrompt("Acme", intake.StageTechnicalQuestions),
		"conclusion": conclusionPrompt("Acme", nil),
		"exit":       exitPrompt("Acme"),
	} {
		assert.NotContains(t, prompt, "{{", name)
		assert.Contains(t, prompt, "Acme", name)
	}

	assert.Contains(t, collectorPrompt("Acme", intake.StageCollectPhone, nil), "international format")
	assert.Contains(t, collectorPrompt("Acme", intake.StageGreeting, nil), defaultInstruction)
	assert.Contains(t, fallbackPrompt("Acme", intake.StageTechnicalQuestions), "NEEDED INFORMATION: Answer to technical question")
}
