package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/inner-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go"
)

// DefaultBaseURL is the default OpenAI API base URL
const DefaultBaseURL = "https://api.openai.com/v1"

const (
	defaultChatModel  = "gpt-4o"
	defaultEmbedModel = "text-embedding-3-small"
)

// OpenAI talks to OpenAI-compatible chat and embedding endpoints over
// raw HTTP. The request body is assembled by hand so that sampling
// parameters can be passed through to compatible gateways.
type OpenAI struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
}

var _ interfaces.LLMClient = &OpenAI{}

// OpenAIOption configures an OpenAI client
type OpenAIOption func(*OpenAI)

// WithChatModel sets the model used for completions
func WithChatModel(m string) OpenAIOption {
	return func(c *OpenAI) {
		c.chatModel = m
	}
}

// WithEmbedModel sets the model used for embeddings
func WithEmbedModel(m string) OpenAIOption {
	return func(c *OpenAI) {
		c.embedModel = m
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAI) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAI) {
		c.httpClient = hc
	}
}

// NewOpenAI creates an OpenAI-backed client. An empty apiKey falls back
// to OPENAI_API_KEY, and the base URL to OPENAI_BASE_URL.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, goerr.New("OpenAI API key is required")
	}

	c := &OpenAI{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		chatModel:  defaultChatModel,
		embedModel: defaultEmbedModel,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			c.baseURL = envBaseURL
		}
	}

	return c, nil
}

func (c *OpenAI) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body", goerr.V("path", path))
	}

	if resp.StatusCode != http.StatusOK {
		if isPolicyBlockBody(respBody) {
			return nil, goerr.Wrap(interfaces.ErrContentBlocked, "request rejected by moderation",
				goerr.V("status", resp.StatusCode),
			)
		}
		return nil, goerr.New("API request failed",
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
		)
	}

	return respBody, nil
}

func (c *OpenAI) Generate(ctx context.Context, prompt string, cfg interfaces.GenerateConfig) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	}

	reqBody := map[string]interface{}{
		"model":    c.chatModel,
		"messages": messages,
	}
	if cfg.Temperature > 0 {
		reqBody["temperature"] = cfg.Temperature
	}
	if cfg.MaxOutputTokens > 0 {
		reqBody["max_tokens"] = cfg.MaxOutputTokens
	}

	respBody, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", goerr.Wrap(err, "failed to parse completion response")
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}
	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", goerr.Wrap(interfaces.ErrContentBlocked, "completion stopped by content filter")
	}

	return strings.TrimSpace(choice.Message.Content), nil
}

func (c *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model":      c.embedModel,
		"input":      texts,
		"dimensions": model.EmbeddingDimension,
	}

	respBody, err := c.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, goerr.Wrap(err, "failed to parse embedding response")
	}

	if len(parsed.Data) != len(texts) {
		return nil, goerr.New("embedding count mismatch",
			goerr.V("want", len(texts)),
			goerr.V("got", len(parsed.Data)),
		)
	}

	results := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		results[i] = vec
	}

	return results, nil
}

func isPolicyBlockBody(body []byte) bool {
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "content_policy") || strings.Contains(msg, "content_filter")
}
