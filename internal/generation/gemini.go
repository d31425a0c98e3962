package generation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient implements Service with the Gemini API.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient builds a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

// Complete sends one generate-content request.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens) // #nosec G115 -- bounded by config validation
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", NewError(KindUnavailable, "gemini", fmt.Errorf("no candidates"))
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func classifyGemini(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "gemini", err)
	}
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return NewError(kindForStatus(apiErr.Code), "gemini", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return NewError(KindUnavailable, "gemini", err)
}
