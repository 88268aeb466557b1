package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/heartmarshall/whosright-backend/internal/provider"
)

const providerName = "openai"

// Client calls an OpenAI-compatible chat completions endpoint with a single credential.
type Client struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

// NewClient creates a Client. An empty baseURL uses the public OpenAI endpoint.
func NewClient(apiKey, model, baseURL string, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logger.With("adapter", providerName),
	}
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return providerName }

// Complete requests a JSON-object completion for one prompt.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return provider.Completion{}, provider.Classify(providerName, statusOf(err), err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return provider.Completion{}, &provider.Error{
			Provider: providerName,
			Kind:     provider.KindEmpty,
			Err:      fmt.Errorf("no content in response"),
		}
	}

	c.log.DebugContext(ctx, "openai completion",
		slog.String("model", resp.Model),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return provider.Completion{
		Text:     resp.Choices[0].Message.Content,
		Provider: providerName,
		Model:    c.model,
	}, nil
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
