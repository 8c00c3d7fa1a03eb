package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/educa-pb/demandas-service/internal/config"
)

// Gemini calls the generateContent endpoint of the Generative Language API.
type Gemini struct {
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
}

// NewGemini builds a client from config.
func NewGemini(cfg config.LLMConfig) *Gemini {
	return &Gemini{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout(),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends a single-turn prompt and returns the concatenated text parts
// of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.apiKey == "" || g.endpoint == "" {
		return "", ErrNotConfigured
	}
	url := g.endpoint + "/models/" + g.model + ":generateContent"
	req := geminiRequest{Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}}

	var resp geminiResponse
	headers := map[string]string{"x-goog-api-key": g.apiKey}
	if err := postJSON(ctx, url, headers, g.timeout, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
