package generation

import (
	"context"
	stderrors "errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Service with the chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient builds a client; baseURL is optional for compatible gateways.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing; set generation.api_key or OPENAI_API_KEY")
	}
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...), model: model}, nil
}

// Complete sends one chat completion. SDK-level retries are disabled so the
// caller's retry policy is the only one in effect.
func (o *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	params.Temperature = openai.Float(req.Temperature)

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(KindUnavailable, "openai", fmt.Errorf("empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAI(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, "openai", err)
	}
	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		return NewError(kindForStatus(apiErr.StatusCode), "openai", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return NewError(KindUnavailable, "openai", err)
}
