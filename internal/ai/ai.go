package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider can not be built, typically
// because its credentials are missing.
var ErrNotConfigured = errors.New("text generation is not configured")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a single generation call: an instruction block plus the
// role-tagged conversation it applies to.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}
