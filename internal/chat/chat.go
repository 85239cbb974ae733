// Package chat is the conversational assistant collaborator backed by an
// OpenAI-compatible chat completion API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/oshokin/fall-guard/internal/logger"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// APIKeyEnv is the environment variable consulted when no key is configured.
	APIKeyEnv = "OPENAI_API_KEY"

	systemPrompt = "You are a calm assistant helping an older adult with health questions. " +
		"Keep answers short. For emergencies, tell the user to call their emergency contact."
)

var (
	// ErrNetwork is returned when the assistant cannot be reached.
	ErrNetwork = errors.New("chat service unreachable")
	// ErrAuth is returned when the assistant rejects the credentials.
	ErrAuth = errors.New("chat service rejected credentials")
	// ErrEmptyPrompt is returned for a blank question.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Message is one turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// Config configures the client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client asks questions to the assistant.
type Client struct {
	api   *openai.Client
	model string
	keyed bool
}

// New creates a client. A missing key is not an error here; Ask reports it.
func New(cfg Config) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: model,
		keyed: apiKey != "",
	}
}

// Ask sends the history followed by the prompt and returns the reply.
func (c *Client) Ask(ctx context.Context, history []Message, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	if !c.keyed {
		return "", fmt.Errorf("%w: %s is not set", ErrAuth, APIKeyEnv)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, m := range history {
		role := m.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}

		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	logger.DebugKV(ctx, "Asking assistant", "model", c.model, "turns", len(messages))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrNetwork)
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps a client error onto ErrAuth or ErrNetwork. Other rejections
// by the API are returned as they are.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		status int
	)

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuth, err)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	default:
		return fmt.Errorf("assistant rejected the request: %w", err)
	}
}
