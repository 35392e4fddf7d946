package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

const defaultModel = "gpt-4o-mini"

// Client wraps the chat-completions API behind the screening.TextService contract.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a chat client with the default model.
func NewClient(apiKey string) *Client {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Client{
		client: &client,
		model:  defaultModel,
	}
}

// WithModel overrides the chat model.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// Generate sends a system+user prompt pair and returns the raw text response.
// Responses are untrusted free text.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       c.model,
		Temperature: openai.Float(0.1), // Low temperature for consistency
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	return completion.Choices[0].Message.Content, nil
}

// GenerateJSON is Generate with JSON response format enforced by the API.
// The response is still validated by the caller; the format hint just cuts
// down on markdown-fenced or prefixed output.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	return completion.Choices[0].Message.Content, nil
}
