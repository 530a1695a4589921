// Package openai implements ports.Completer over any OpenAI-compatible chat
// completions endpoint, OpenRouter included.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultModel   = "gpt-4o-mini"
	requestTimeout = 90 * time.Second
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient overrides the transport; tests point it at httptest.
	HTTPClient *http.Client
}

type Adapter struct {
	key    string
	model  string
	client oai.Client
}

func New(cfg Config) *Adapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := normalizeBaseURL(cfg.BaseURL)
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL + "/"),
		option.WithMaxRetries(1),
	}
	if isOpenRouter(baseURL) {
		opts = append(opts,
			option.WithHeader("HTTP-Referer", "https://github.com/forPelevin/reelcut"),
			option.WithHeader("X-Title", "reelcut"),
		)
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Adapter{key: cfg.APIKey, model: model, client: oai.NewClient(opts...)}
}

func (a *Adapter) Model() string { return a.model }

func (a *Adapter) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(reqCtx, oai.ChatCompletionNewParams{
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(userPrompt),
		},
		Model:       a.model,
		Temperature: oai.Float(temperature),
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("completion timeout after %s (model=%s)", requestTimeout, a.model)
		}
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion status %d: %s", apiErr.StatusCode, truncate(redactSecrets(apiErr.Error(), a.key), 400))
		}
		return "", errors.New(truncate(redactSecrets(err.Error(), a.key), 400))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion: no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("completion: empty content")
	}
	return content, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
