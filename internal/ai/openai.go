package ai

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

const defaultOpenAIModel = openai.GPT3Dot5Turbo

// OpenAI streams chat completions from OpenAI or any compatible endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if missingKey(apiKey) {
		return nil, domain.ConfigurationError("missing OPENAI_API_KEY", nil)
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (o *OpenAI) Complete(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    o.model,
			Messages: toOpenAIMessages(messages),
			Stream:   true,
		})
		if err != nil {
			yield("", classifyOpenAIError(err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", classifyOpenAIError(err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if chunk := resp.Choices[0].Delta.Content; chunk != "" {
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}
}

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusUnauthorized {
		return domain.ConfigurationError("invalid OPENAI_API_KEY", err)
	}
	return domain.CompletionError("An error occurred", err)
}
