package ai

import "context"

// Role identifies who authored a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Client knows how to run chat completions against a language model.
type Client interface {
	// Chat sends the messages to the given model and returns the assistant
	// response content.
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}

// Noop is a client that returns empty responses. Used when a component needs
// a client but will never call the model.
const Noop = noop(0)

type noop int

func (noop) Chat(_ context.Context, _ string, _ []Message) (string, error) { return "", nil }

var _ Client = Noop
