// Package openai provides an Enhancer implementation using OpenAI.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

// Suggestion text wants some creative range, image readings want precision.
const (
	textTemperature   = 0.7
	visionTemperature = 0.3
)

// Client implements the Enhancer interface using OpenAI. It is always
// called through the enhancement gateway, which owns the timeout.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a new OpenAI enhancement client.
func NewClient(cfg config.GatewayConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}, nil
}

// Complete runs one completion and returns the model text.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if req.Kind == ports.CompletionVision {
		return c.completeVision(ctx, req)
	}
	return c.completeText(ctx, req)
}

func (c *Client) completeText(ctx context.Context, req ports.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		Temperature: textTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) completeVision(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if len(req.ImageData) == 0 {
		return "", errors.New("vision request without image data")
	}

	imageURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(req.ImageData),
		base64.StdEncoding.EncodeToString(req.ImageData))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: req.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		Temperature: visionTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
