package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/whosright-backend/internal/provider"
)

const providerName = "anthropic"

// Client calls the Anthropic Messages API with a single credential.
// Retries are disabled in the SDK; rotation happens one level up.
type Client struct {
	client anthropic.Client
	model  string
	log    *slog.Logger
}

// NewClient creates a Client for one API key.
func NewClient(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  model,
		log:    logger.With("adapter", providerName),
	}
}

// NewClientWithURL creates a Client against a custom base URL (for testing).
func NewClientWithURL(baseURL, apiKey, model string, logger *slog.Logger) *Client {
	return NewClient(apiKey, model, logger, option.WithBaseURL(baseURL))
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return providerName }

// Complete sends one prompt and returns the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return provider.Completion{}, provider.Classify(providerName, apiErr.StatusCode, err)
		}
		return provider.Completion{}, provider.Classify(providerName, 0, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return provider.Completion{}, &provider.Error{
			Provider: providerName,
			Kind:     provider.KindEmpty,
			Err:      fmt.Errorf("no text content in response (stop reason %q)", msg.StopReason),
		}
	}

	c.log.DebugContext(ctx, "anthropic completion",
		slog.String("model", string(msg.Model)),
		slog.Int64("input_tokens", msg.Usage.InputTokens),
		slog.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return provider.Completion{
		Text:     b.String(),
		Provider: providerName,
		Model:    c.model,
	}, nil
}
