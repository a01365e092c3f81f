// Package genai proxies the text and image generation collaborators. Both
// are thin passthroughs: prompt in, text or URL out.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"engagelens/pkg/config"
	"engagelens/pkg/errors"
)

const analysisSystemPrompt = "You are a management consultant for small regional businesses."

// Client talks to an OpenAI-compatible API over plain HTTP.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	log        zerolog.Logger
}

// NewClient builds a collaborator client from configuration. A missing API
// key is a configuration error surfaced per request, matching the original
// deployment where the key may be absent in some environments.
func NewClient(cfg config.OpenAIConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		log:        log,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze runs the business-analysis chat completion and returns the text.
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	var resp chatResponse
	err := c.post(ctx, "/chat/completions", chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: prompt},
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.ExternalService(nil, "completion response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateCampaignImage produces a promotional image for the given analysis
// summary and returns its URL.
func (c *Client) GenerateCampaignImage(ctx context.Context, analysisSummary string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a promotional campaign image based on the following Japanese business analysis:\n%s\n"+
			"Design it to be visually appealing for social media, include relevant symbols, and use modern Japanese design aesthetics.",
		analysisSummary)

	var resp imageResponse
	err := c.post(ctx, "/images/generations", imageRequest{
		Model:  "dall-e-3",
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", errors.ExternalService(nil, "image response contained no data")
	}
	return resp.Data[0].URL, nil
}

func (c *Client) post(ctx context.Context, path string, body, target interface{}) error {
	if c.apiKey == "" {
		return errors.Configuration("OPENAI_API_KEY is not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.ExternalService(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ExternalService(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("generation request completed")

	if resp.StatusCode != http.StatusOK {
		return errors.ExternalService(nil, "generation API returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.ExternalService(err, "parsing response from %s", path)
	}
	return nil
}
