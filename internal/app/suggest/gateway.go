// Package suggest asks a chat completion model for a priority and due date
// suggestion for a task description.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultMaxTokens = 100
	DefaultTimeout   = 30 * time.Second

	checkPrompt    = "Say hello!"
	checkMaxTokens = 10

	promptTemplate = "Given the following task description, suggest a priority (High, Medium, Low) and a due date (if possible):\n\n%s"
)

// ErrSuggestionFailed matches every failure of the completion call.
var ErrSuggestionFailed = errors.New("AI suggestion failed")

// Error carries the underlying cause of a failed suggestion.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return ErrSuggestionFailed.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{ErrSuggestionFailed, e.Err}
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int64
	Timeout   time.Duration
}

type Gateway struct {
	cfg    Config
	client openai.Client
}

// NewGateway builds a gateway. An empty API key is accepted here and
// reported by Suggest instead.
func NewGateway(cfg Config, httpClient *http.Client) *Gateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}

	return &Gateway{
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}
}

func Prompt(description string) string {
	return fmt.Sprintf(promptTemplate, description)
}

// Suggest sends one completion request and returns the first choice's text.
func (g *Gateway) Suggest(ctx context.Context, description string) (string, error) {
	text, err := g.complete(ctx, Prompt(description), g.cfg.MaxTokens)
	if err != nil {
		return "", &Error{Err: err}
	}
	return text, nil
}

// Check sends a tiny greeting request to verify the key, model and base URL.
func (g *Gateway) Check(ctx context.Context) (string, error) {
	text, err := g.complete(ctx, checkPrompt, checkMaxTokens)
	if err != nil {
		return "", &Error{Err: err}
	}
	return text, nil
}

func (g *Gateway) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", errors.New("OPENAI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
