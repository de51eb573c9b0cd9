package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/taskpilot/taskpilot/internal/ai"
	"github.com/taskpilot/taskpilot/internal/log"
)

// ClientConfig is the configuration of the OpenAI chat client.
type ClientConfig struct {
	// APIKey authenticates against the API.
	APIKey string
	// BaseURL optionally points the client at an OpenAI compatible endpoint.
	BaseURL string
	Logger  log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"service": "ai.Client"})

	return nil
}

// Client implements ai.Client over the OpenAI chat completions API.
type Client struct {
	client openai.Client
	logger log.Logger
}

// NewClient returns a new OpenAI chat client.
func NewClient(cfg ClientConfig) (*Client, error) {
	err := cfg.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		logger: cfg.Logger,
	}, nil
}

func (c *Client) Chat(ctx context.Context, model string, messages []ai.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case ai.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case ai.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("could not run chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.WithValues(log.Kv{"model": model}).Debugf("Chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

var _ ai.Client = (*Client)(nil)
