package intake

import (
	"errors"
	"fmt"

	"github.com/spigell/screener/internal/validate"
)

var (
	// ErrEmptyAnswer is matched by rejections of a blank technical answer.
	ErrEmptyAnswer = errors.New("please provide an answer to the question")
	// ErrNoPendingQuestion is returned when an answer arrives before the
	// caller supplied a question with SetQuestion.
	ErrNoPendingQuestion = errors.New("no technical question is pending")
	// ErrNotAsking is returned by SetQuestion outside of the question loop.
	ErrNotAsking = errors.New("session is not waiting for a technical question")
)

// RejectionKind classifies recoverable input rejections.
type RejectionKind string

const (
	KindValidation  RejectionKind = "validation_rejected"
	KindEmptyAnswer RejectionKind = "empty_answer"
)

// RejectionError is returned by Submit when the input can not be accepted.
// The session state is left untouched and the same stage may be retried.
type RejectionError struct {
	Kind   RejectionKind
	Stage  Stage
	Reason string

	err error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected at %s: %s", e.Kind, e.Stage, e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.err }

func validationRejected(stage Stage, err error) *RejectionError {
	reason := err.Error()
	var verr *validate.Error
	if errors.As(err, &verr) {
		reason = verr.Reason
	}

	return &RejectionError{Kind: KindValidation, Stage: stage, Reason: reason, err: err}
}

func emptyAnswer() *RejectionError {
	return &RejectionError{
		Kind:   KindEmptyAnswer,
		Stage:  StageTechnicalQuestions,
		Reason: "Please provide an answer to the question.",
		err:    ErrEmptyAnswer,
	}
}

// IsRejection reports whether err is a recoverable input rejection and
// returns the reason meant for the candidate.
func IsRejection(err error) (string, bool) {
	var rerr *RejectionError
	if errors.As(err, &rerr) {
		return rerr.Reason, true
	}
	return "", false
}
