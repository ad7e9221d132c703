package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dassyor/config"
	"dassyor/internal/util"
	"dassyor/pkg/circuitbreaker"
	"dassyor/pkg/metrics"
)

// Client talks to an OpenAI-compatible chat completions endpoint behind a
// circuit breaker.
type Client struct {
	cfg        config.OpenAIConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt pair and returns the first choice.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out string

	start := time.Now()
	err := c.breaker.Execute(func() error {
		var innerErr error
		out, innerErr = c.doComplete(ctx, systemPrompt, userPrompt)
		return innerErr
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordExternalCallLatency("openai", status, time.Since(start))

	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) doComplete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("openai 5xx: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", util.Permanent(fmt.Errorf("openai rejected: status %d", resp.StatusCode))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
