package model

import "fmt"

// DefaultChatModel is the chat model used when none is configured.
const DefaultChatModel = "gpt-4o-mini"

// DefaultAPIKeyEnv is the environment variable holding the chat API key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// Config is the application configuration.
type Config struct {
	// ChatModel is the model name sent on chat completion requests.
	ChatModel string
	// BaseURL points the chat client at an OpenAI-compatible endpoint,
	// empty means the default endpoint.
	BaseURL string
	// APIKeyEnv is the environment variable the chat API key is read from.
	APIKeyEnv string
	// DataDir is the root directory for the database and session workspaces.
	DataDir string
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ChatModel == "" {
		return fmt.Errorf("chat model is required: %w", ErrNotValid)
	}
	if c.APIKeyEnv == "" {
		return fmt.Errorf("api key environment variable is required: %w", ErrNotValid)
	}
	return nil
}
