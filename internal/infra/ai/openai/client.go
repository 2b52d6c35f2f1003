package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/heartnote/internal/domain/emotion"
)

const chatPath = "/chat/completions"

// Client speaks the OpenAI-compatible chat completions API (DeepSeek, OpenAI and friends).
type Client struct {
	*openai.Client
}

// NewClient derives the base URL from a full chat-completions endpoint, so
// "https://api.deepseek.com/v1/chat/completions" and "https://api.deepseek.com/v1" are equivalent.
func NewClient(apiKey, endpoint string, httpClient *http.Client) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = BaseURL(endpoint)
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

func BaseURL(endpoint string) string {
	return strings.TrimSuffix(strings.TrimRight(endpoint, "/"), chatPath)
}

// Complete sends prompt as a single user message and returns the raw response envelope as JSON.
// Errors are go-openai errors (*openai.APIError, *openai.RequestError) or the http client's.
func (c *Client) Complete(ctx context.Context, prompt string, model emotion.ModelParams) ([]byte, error) {
	req := openai.ChatCompletionRequest{
		Model: model.Name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: false,
	}
	// Reasoning models (o1/o3/o4/gpt-5*) reject max_tokens and custom temperatures.
	if isReasoningModel(model.Name) {
		req.MaxCompletionTokens = model.MaxTokens
	} else {
		req.MaxTokens = model.MaxTokens
		req.Temperature = float32(model.Temperature)
		// temperature is omitempty; this is how go-openai sends an explicit zero.
		if req.Temperature == 0 {
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat completion: %w", err)
	}
	return b, nil
}

func isReasoningModel(name string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
