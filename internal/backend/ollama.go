package backend

import (
	"context"
	"net/http"
)

// OllamaRequest represents the request body for Ollama API
type OllamaRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *OllamaOptions `json:"options,omitempty"`
}

// OllamaOptions carries generation settings
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaResponse represents the response from Ollama API
type OllamaResponse struct {
	Model     string      `json:"model"`
	CreatedAt string      `json:"created_at"`
	Message   ChatMessage `json:"message"`
	Done      bool        `json:"done"`
}

// OllamaTagsResponse represents the response from Ollama /api/tags endpoint
type OllamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// OllamaModel represents a single model in the Ollama tags response
type OllamaModel struct {
	Name       string `json:"name"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
}

// ChatMessage is a role/content pair in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatMessages builds the system + user turn pair for req.
func chatMessages(req Request) []ChatMessage {
	return []ChatMessage{
		{Role: "system", Content: req.System},
		{Role: "user", Content: req.Payload.UserPrompt()},
	}
}

// Ollama calls a local Ollama server's /api/chat endpoint.
type Ollama struct {
	transport
	model string
}

// NewOllama creates an Ollama client.
func NewOllama(opts Options) *Ollama {
	return &Ollama{transport: newTransport("ollama", opts), model: opts.Model}
}

func (o *Ollama) Name() string  { return o.name }
func (o *Ollama) Model() string { return o.model }

// Generate sends one non-streaming chat request.
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	body := OllamaRequest{
		Model:    o.model,
		Messages: chatMessages(req),
		Stream:   false,
		Options: &OllamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var apiResp OllamaResponse
	if err := o.do(ctx, http.MethodPost, "/api/chat", body, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Message.Content == "" {
		return "", o.unavailable(KindEmptyResponse, "empty response from Ollama", nil)
	}
	return apiResp.Message.Content, nil
}

// ListModels returns the names of locally installed models.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	var tagsResp OllamaTagsResponse
	if err := o.do(ctx, http.MethodGet, "/api/tags", nil, &tagsResp); err != nil {
		return nil, err
	}
	names := make([]string, len(tagsResp.Models))
	for i, m := range tagsResp.Models {
		names[i] = m.Name
	}
	return names, nil
}
