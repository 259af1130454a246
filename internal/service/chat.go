package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/config"
	"github.com/pageza/knoweat/backend/internal/metrics"
)

// Message represents a message in the chat. Content is either a string or a []ContentPart.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multimodal user message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an inline image as a data URI.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ChatRequest represents a request to the chat-completions endpoint
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the part of the chat-completions reply this service reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatClient sends self-contained chat-completion requests. It holds configuration only
// and is safe for concurrent use.
type ChatClient struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewChatClient creates a client for the configured model endpoint
func NewChatClient(cfg config.ModelConfig, logger *zap.Logger) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model API key must be set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultModelURL
	}
	model := cfg.Name
	if model == "" {
		model = config.DefaultModelName
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultModelTimeout
	}
	return &ChatClient{
		apiKey:      cfg.APIKey,
		apiURL:      apiURL,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// Complete sends one request and returns the text of the first choice. Exactly one attempt is made.
func (c *ChatClient) Complete(ctx context.Context, operation string, messages []Message) (string, error) {
	start := time.Now()
	content, err := c.complete(ctx, messages)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = string(KindOf(err))
		if errors.Is(err, context.Canceled) {
			status = "canceled"
		}
		c.logger.Warn("model call failed",
			zap.String("operation", operation),
			zap.Duration("latency", elapsed),
			zap.String("kind", status),
			zap.Error(err))
	} else {
		c.logger.Info("model call succeeded",
			zap.String("operation", operation),
			zap.Duration("latency", elapsed),
			zap.Int("content_length", len(content)))
	}
	metrics.ObserveModelCall(operation, status, elapsed)
	return content, err
}

func (c *ChatClient) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", newAnalysisError(KindEncodingFailed, err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", newAnalysisError(KindServerError, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newAnalysisError(KindServerError, nil, "API error (%d): %s", resp.StatusCode, truncate(string(body), 512))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", newAnalysisError(KindInvalidResponse, err, "failed to decode response envelope")
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil {
		return "", newAnalysisError(KindInvalidResponse, nil, "no content in model response")
	}
	return *result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Model is the model name sent with every request.
func (c *ChatClient) Model() string { return c.model }
