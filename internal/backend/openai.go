package backend

import (
	"context"
	"net/http"
)

// OpenAIRequest represents the request body for OpenAI-compatible APIs
type OpenAIRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// OpenAIResponse represents the response from OpenAI-compatible APIs
type OpenAIResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]interface{} `json:"usage"`
}

// OpenAIModelsResponse represents the response from /v1/models
type OpenAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// OpenAI calls a locally hosted OpenAI-compatible server.
type OpenAI struct {
	transport
	model string
}

// NewOpenAI creates an OpenAI-compatible client.
func NewOpenAI(opts Options) *OpenAI {
	return &OpenAI{transport: newTransport("openai", opts), model: opts.Model}
}

func (o *OpenAI) Name() string  { return o.name }
func (o *OpenAI) Model() string { return o.model }

// Generate sends one chat completion request.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	body := OpenAIRequest{
		Model:       o.model,
		Messages:    chatMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var apiResp OpenAIResponse
	if err := o.do(ctx, http.MethodPost, "/v1/chat/completions", body, &apiResp); err != nil {
		return "", err
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", o.unavailable(KindEmptyResponse, "empty response from OpenAI-compatible server", nil)
	}
	return apiResp.Choices[0].Message.Content, nil
}

// ListModels returns the model IDs served by the endpoint.
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	var modelsResp OpenAIModelsResponse
	if err := o.do(ctx, http.MethodGet, "/v1/models", nil, &modelsResp); err != nil {
		return nil, err
	}
	names := make([]string, len(modelsResp.Data))
	for i, m := range modelsResp.Data {
		names[i] = m.ID
	}
	return names, nil
}
