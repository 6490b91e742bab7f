// Package ollama implements the Generation Port against a local Ollama
// server's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firstpixel/agent-workflow/llm"
	"github.com/firstpixel/agent-workflow/types"
)

// Config configures the Ollama provider.
type Config struct {
	// BaseURL is the Ollama server address, default http://localhost:11434.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds a single chat call.
	Timeout time.Duration `yaml:"timeout"`
}

// Provider calls Ollama's POST /api/chat endpoint. The node's system
// prompt and prompt template become the system and user messages; the
// model configuration is flattened into the request options verbatim.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an Ollama provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "ollama_provider")),
	}
}

func (p *Provider) Name() string { return "ollama" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Options  map[string]any `json:"options,omitempty"`
	Stream   bool           `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Generate implements llm.Provider.
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	userContent := req.Input
	if req.Prompt != "" {
		userContent = req.Prompt + "\n\n" + req.Input
	}

	body := chatRequest{
		Model: req.Model.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: userContent},
		},
		Options: req.Model.Options(),
		Stream:  false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.ErrGeneration, "marshal chat request").WithCause(err)
	}

	endpoint := fmt.Sprintf("%s/api/chat", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrGeneration, "build chat request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrGeneration, "ollama unreachable").
			WithRetryable(true).
			WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return nil, types.NewError(types.ErrGeneration,
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, msg)).
			WithRetryable(resp.StatusCode >= 500)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, types.NewError(types.ErrGeneration, "decode chat response").
			WithRetryable(true).
			WithCause(err)
	}
	if chatResp.Error != "" {
		return nil, types.NewError(types.ErrGeneration, chatResp.Error).WithRetryable(true)
	}

	p.logger.Debug("chat completed",
		zap.String("model", req.Model.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("eval_count", chatResp.EvalCount),
	)

	return &llm.GenerateResponse{
		Output:           strings.TrimSpace(chatResp.Message.Content),
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
	}, nil
}

// readErrMsg extracts the error field from an Ollama error body, falling
// back to the raw body text.
func readErrMsg(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
