// Package gemini provides an Enhancer implementation using Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

const defaultModel = "gemini-2.0-flash"

// Suggestion text wants some creative range, image readings want precision.
const (
	textTemperature   float32 = 0.7
	visionTemperature float32 = 0.3
)

// Client implements the Enhancer interface using Gemini. It is always
// called through the enhancement gateway, which owns the timeout.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a new Gemini enhancement client.
func NewClient(ctx context.Context, cfg config.GatewayConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	model := defaultModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Complete runs one completion and returns the model text.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(textTemperature),
	}
	contents := genai.Text(req.Prompt)

	if req.Kind == ports.CompletionVision {
		if len(req.ImageData) == 0 {
			return "", errors.New("vision request without image data")
		}
		genConfig.Temperature = genai.Ptr(visionTemperature)
		contents = []*genai.Content{{Parts: []*genai.Part{
			{InlineData: &genai.Blob{
				MIMEType: http.DetectContentType(req.ImageData),
				Data:     req.ImageData,
			}},
			{Text: req.Prompt},
		}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("calling Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini")
	}

	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}
