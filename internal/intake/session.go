// Package intake implements the candidate intake conversation as a stage
// machine: a fixed run of validated profile fields followed by a counted loop
// of technical questions.
//
// A Session performs no I/O. Question texts are produced by the caller and
// handed in with SetQuestion whenever a Result asks for one.
package intake

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/screener/internal/validate"
)

const (
	DefaultMinQuestions = 3
	DefaultMaxQuestions = 5
)

// ExitKeywords end the conversation when found anywhere in the input,
// ignoring case.
var ExitKeywords = []string{"exit", "quit", "bye", "goodbye", "stop", "end", "cancel", "terminate"}

// ContainsExitKeyword reports whether msg asks to leave the conversation.
func ContainsExitKeyword(msg string) bool {
	lower := strings.ToLower(strings.TrimSpace(msg))
	for _, keyword := range ExitKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Config tunes a Session. Zero values fall back to defaults.
type Config struct {
	MinQuestions int
	MaxQuestions int
	// Rand draws the number of technical questions. Seed it in tests.
	Rand *rand.Rand
	Now  func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MinQuestions < 1 {
		c.MinQuestions = DefaultMinQuestions
	}
	if c.MaxQuestions < c.MinQuestions {
		c.MaxQuestions = max(DefaultMaxQuestions, c.MinQuestions)
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// QA is an answered technical question.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Loop is the state of the technical question run.
type Loop struct {
	// Target is drawn once when the run starts.
	Target  int      `json:"target"`
	Pairs   []QA     `json:"pairs,omitempty"`
	Pending string   `json:"pending,omitempty"`
	Techs   []string `json:"techs,omitempty"`
}

// Asked is the number of answered questions.
func (l Loop) Asked() int { return len(l.Pairs) }

// Exhausted reports whether every drawn question was answered.
func (l Loop) Exhausted() bool { return l.Target > 0 && l.Asked() >= l.Target }

func (l Loop) clone() Loop {
	out := l
	out.Pairs = append([]QA(nil), l.Pairs...)
	out.Techs = append([]string(nil), l.Techs...)
	return out
}

// Result describes what a submission did.
type Result struct {
	Previous Stage
	Stage    Stage
	// Accepted is set when the input was consumed and the session moved on.
	Accepted bool
	// Field and Value are set when a candidate field was stored.
	Field validate.Field
	Value string
	// Exited is set when an exit keyword ended the conversation.
	Exited bool
	// NeedQuestion asks the caller to produce the next technical question
	// and pass it to SetQuestion.
	NeedQuestion bool
	// Informational is set when the session is past collecting anything.
	Informational bool
}

// Session owns the state of one candidate conversation.
type Session struct {
	cfg Config

	id        string
	startedAt time.Time
	stage     Stage
	candidate map[validate.Field]string
	loop      Loop
	log       conversationLog
}

// New starts a session at the greeting stage.
func New(cfg Config) *Session {
	s := &Session{cfg: cfg.withDefaults()}
	s.init()
	return s
}

func (s *Session) init() {
	s.id = uuid.NewString()
	s.startedAt = s.cfg.Now()
	s.stage = StageGreeting
	s.candidate = make(map[validate.Field]string, len(validate.Fields))
	s.loop = Loop{}
	s.log = conversationLog{now: s.cfg.Now}
}

// Reset discards everything, equivalent to a fresh session.
func (s *Session) Reset() {
	s.init()
}

func (s *Session) ID() string           { return s.id }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) Stage() Stage         { return s.stage }

// Submit feeds one candidate message into the machine.
//
// A recoverable rejection is returned as *RejectionError and leaves the stage,
// the candidate record and the question loop untouched.
func (s *Session) Submit(raw string) (Result, error) {
	res := Result{Previous: s.stage, Stage: s.stage}

	if s.stage == StageEnded {
		res.Informational = true
		return res, nil
	}

	if ContainsExitKeyword(raw) {
		s.log.append(RoleUser, raw)
		s.loop = Loop{}
		s.stage = StageEnded
		res.Stage = s.stage
		res.Exited = true
		return res, nil
	}

	switch s.stage {
	case StageGreeting:
		s.log.append(RoleUser, raw)
		s.advance()
		res.Accepted = true
	case StageCollectName, StageCollectEmail, StageCollectPhone, StageCollectExperience,
		StageCollectPosition, StageCollectLocation, StageCollectTechStack:
		if err := s.collect(raw, &res); err != nil {
			return res, err
		}
	case StageTechnicalQuestions:
		if err := s.answer(raw, &res); err != nil {
			return res, err
		}
	case StageConclusion:
		res.Informational = true
		return res, nil
	default:
		return res, fmt.Errorf("unknown stage %q", s.stage)
	}

	res.Stage = s.stage
	if s.stage == StageTechnicalQuestions && res.Previous != StageTechnicalQuestions {
		res.NeedQuestion = true
	}
	return res, nil
}

func (s *Session) collect(raw string, res *Result) error {
	field, _ := s.stage.Field()
	fn, ok := validate.For(field)
	if !ok {
		return fmt.Errorf("no validator for field %q", field)
	}

	// Rejected input is still part of the transcript.
	s.log.append(RoleUser, raw)

	value, err := fn(raw)
	if err != nil {
		return validationRejected(s.stage, err)
	}

	s.candidate[field] = value
	res.Field = field
	res.Value = value
	res.Accepted = true
	s.advance()
	return nil
}

func (s *Session) answer(raw string, res *Result) error {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		// Same as collect: a rejected answer is still part of the transcript.
		s.log.append(RoleUser, raw)
		return emptyAnswer()
	}
	if s.loop.Pending == "" {
		return ErrNoPendingQuestion
	}

	s.log.append(RoleUser, raw)
	s.loop.Pairs = append(s.loop.Pairs, QA{Question: s.loop.Pending, Answer: answer})
	s.loop.Pending = ""
	res.Accepted = true

	if s.loop.Exhausted() {
		s.advance()
		return nil
	}

	res.NeedQuestion = true
	return nil
}

// advance moves to the next stage. A stage missing from Sequence is a bug and
// ends the conversation.
func (s *Session) advance() {
	i := s.stage.index()
	if i < 0 || i >= len(Sequence)-1 {
		s.stage = StageEnded
		return
	}

	s.stage = Sequence[i+1]
	if s.stage == StageTechnicalQuestions {
		s.startLoop()
	}
}

func (s *Session) startLoop() {
	span := s.cfg.MaxQuestions - s.cfg.MinQuestions + 1
	s.loop = Loop{
		Target: s.cfg.MinQuestions + s.cfg.Rand.IntN(span),
		Techs:  validate.SplitTechStack(s.candidate[validate.FieldTechStack]),
	}
}

// SetQuestion stores the question the next answer refers to.
func (s *Session) SetQuestion(question string) error {
	if s.stage != StageTechnicalQuestions || s.loop.Exhausted() {
		return ErrNotAsking
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	s.loop.Pending = question
	return nil
}

// Say records an assistant message in the conversation log.
func (s *Session) Say(content string) Entry {
	return s.log.append(RoleAssistant, content)
}

// Progress returns the zero-based position of the current stage and the
// number of steps, not counting the terminal stage.
func (s *Session) Progress() (step, total int) {
	total = len(Sequence) - 1
	if i := s.stage.index(); i >= 0 {
		return i, total
	}
	return 0, total
}

// Candidate returns a copy of the collected fields.
func (s *Session) Candidate() map[validate.Field]string {
	out := make(map[validate.Field]string, len(s.candidate))
	for k, v := range s.candidate {
		out[k] = v
	}
	return out
}

// Loop returns a copy of the technical question state.
func (s *Session) Loop() Loop { return s.loop.clone() }

// Log returns a copy of the conversation so far.
func (s *Session) Log() []Entry { return s.log.snapshot() }

// PendingQuestion returns the question awaiting an answer, if any.
func (s *Session) PendingQuestion() string { return s.loop.Pending }

// QuestionNumber is the 1-based number of the next technical question.
func (s *Session) QuestionNumber() int { return s.loop.Asked() + 1 }

// HasMoreQuestions reports whether the loop still expects answers.
func (s *Session) HasMoreQuestions() bool {
	return s.stage == StageTechnicalQuestions && !s.loop.Exhausted()
}

// IsInfoComplete reports whether every profile field was collected.
func (s *Session) IsInfoComplete() bool {
	for _, field := range validate.Fields {
		if s.candidate[field] == "" {
			return false
		}
	}
	return true
}

// Summary renders the collected fields as a labelled list.
func (s *Session) Summary() string {
	return Summarize(s.candidate)
}

// Summarize renders candidate fields in collection order, skipping gaps.
func Summarize(candidate map[validate.Field]string) string {
	var b strings.Builder
	b.WriteString("Collected Information:\n")
	for _, field := range validate.Fields {
		if v := candidate[field]; v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", field.Label(), v)
		}
	}
	return b.String()
}
