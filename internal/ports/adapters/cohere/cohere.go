// Package cohere implements ports.Completer with the Cohere chat API.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const (
	DefaultModel   = "command-r"
	requestTimeout = 90 * time.Second
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

type Adapter struct {
	client *cohereclient.Client
	model  string
	key    string
}

func New(cfg Config) *Adapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout + 10*time.Second}
	}
	var client *cohereclient.Client
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(hc),
			cohereclient.WithBaseURL(base),
		)
	} else {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(hc),
		)
	}
	return &Adapter{client: client, model: model, key: cfg.APIKey}
}

func (a *Adapter) Model() string { return a.model }

func (a *Adapter) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.Chat(reqCtx, &cohere.ChatRequest{
		Message:     userPrompt,
		Preamble:    &systemPrompt,
		Model:       &a.model,
		Temperature: &temperature,
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("cohere chat timeout after %s (model=%s)", requestTimeout, a.model)
		}
		msg := err.Error()
		if a.key != "" {
			msg = strings.ReplaceAll(msg, a.key, "[REDACTED]")
		}
		return "", fmt.Errorf("cohere chat: %s", msg)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return strings.TrimSpace(resp.Text), nil
}
