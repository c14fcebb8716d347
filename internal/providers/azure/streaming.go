// Package azure implements the streaming text-generation client against an
// Azure OpenAI chat-completions deployment.
package azure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const dataPrefix = "data: "

// Config controls the Azure OpenAI connection.
type Config struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
	ProviderID string
	Timeout    time.Duration
}

// Client streams chat-completion responses chunk by chunk.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.azure.com"
	}
	if cfg.Deployment == "" {
		cfg.Deployment = "gpt-4o"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-06-01"
	}
	if cfg.ProviderID == "" {
		cfg.ProviderID = "azure-gpt-4o"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Generate sends the prompt and invokes onDelta for every streamed content
// chunk. It returns the concatenated full response once the stream completes.
func (c *Client) Generate(ctx context.Context, prompt string, provider string, onDelta func(chunk string)) (string, error) {
	if provider != c.cfg.ProviderID {
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("AZURE_OPENAI_API_KEY is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Deployment, c.cfg.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generation API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	full, err := consumeStream(resp.Body, onDelta)
	if err != nil {
		return "", err
	}
	if full == "" {
		return "", errors.New("generation stream returned no content")
	}
	return full, nil
}

func consumeStream(body io.Reader, onDelta func(chunk string)) (string, error) {
	var builder strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, dataPrefix)
		if payload == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		builder.WriteString(content)
		if onDelta != nil {
			onDelta(content)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read generation stream: %w", err)
	}
	return builder.String(), nil
}
