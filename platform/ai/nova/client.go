// Package nova provides a client for the Amazon Nova text-generation service
// via its OpenAI-compatible chat-completions API.
// This is part of the platform layer and contains no business logic.
package nova

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrUnavailable indicates a transport-level or API-level failure: the
// service could not produce any completion. Callers retry or fall back.
var ErrUnavailable = errors.New("nova: service unavailable")

// ParseError indicates the model produced output that could not be parsed
// into the expected structure. It is a first-class outcome, distinct from
// ErrUnavailable: the service responded, but not with usable data.
type ParseError struct {
	Raw     string
	Missing []string
}

func (e *ParseError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("nova: response missing fields %v", e.Missing)
	}
	return "nova: response is not valid JSON"
}

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Config for the Nova client.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string // default model for drafting
	ModelPro string // stronger model for scoring and summaries
	Timeout  time.Duration
}

// Client calls the Nova chat-completions endpoint through the OpenAI SDK,
// which Nova is wire-compatible with.
type Client struct {
	config Config
	api    openai.Client
}

// NewClient creates a Nova client with bounded request timeouts. SDK-level
// retries are disabled; the orchestrator owns the retry policy.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.nova.amazon.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2-lite-v1"
	}
	if cfg.ModelPro == "" {
		cfg.ModelPro = "nova-2-pro-v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		config: cfg,
		api: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(0),
		),
	}
}

// Request is one chat completion request.
type Request struct {
	System string
	Prompt string
	UsePro bool // select the stronger model
}

// Generate produces a free-text completion.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	model := c.config.Model
	if req.UsePro {
		model = c.config.ModelPro
	}

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d", ErrUnavailable, apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	return completion.Choices[0].Message.Content, nil
}

// GenerateStructured produces a completion and parses it as a JSON object
// containing at least the expected fields. A response that cannot be parsed
// yields a *ParseError, never a silently defaulted map.
func (c *Client) GenerateStructured(ctx context.Context, req Request, expectedFields []string) (map[string]interface{}, error) {
	text, err := c.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseStructured(text, expectedFields)
}

// ParseStructured extracts the outermost JSON object from model output and
// verifies the expected fields are present.
func ParseStructured(text string, expectedFields []string) (map[string]interface{}, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, &ParseError{Raw: text}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, &ParseError{Raw: text}
	}

	var missing []string
	for _, field := range expectedFields {
		if _, ok := parsed[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Raw: text, Missing: missing}
	}

	return parsed, nil
}
