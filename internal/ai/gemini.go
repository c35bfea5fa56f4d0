package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

const defaultGeminiModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if missingKey(apiKey) {
		return nil, domain.ConfigurationError("missing GOOGLE_API_KEY", nil)
	}
	return newGemini(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, model)
}

func newGemini(ctx context.Context, cc *genai.ClientConfig, model string) (*Gemini, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, domain.ConfigurationError("failed to create Gemini client", err)
	}
	return &Gemini{client: c, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		system, contents := toGeminiContents(messages)
		var cfg *genai.GenerateContentConfig
		if system != nil {
			cfg = &genai.GenerateContentConfig{SystemInstruction: system}
		}
		for res, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				yield("", classifyGeminiError(err))
				return
			}
			if text := res.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// Recognize asks Gemini for a verbatim transcription of the text in an image.
func (g *Gemini) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	prompt := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: "Transcribe all text in this image exactly as written, preserving line breaks and math notation. Output only the transcription."},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{prompt}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini OCR failed: %w", err)
	}
	return stripCodeFences(res.Text()), nil
}

// toGeminiContents folds system messages into a single system instruction,
// keeping their order, and maps assistant turns to the model role.
func toGeminiContents(messages []domain.Message) (*genai.Content, []*genai.Content) {
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case domain.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: system}, contents
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		// Gemini reports a bad key as 400 INVALID_ARGUMENT
		badKey := apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key")
		if badKey || apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return domain.ConfigurationError("invalid GOOGLE_API_KEY", err)
		}
	}
	return domain.CompletionError("An error occurred", err)
}

// stripCodeFences unwraps a reply that arrived inside a Markdown fence,
// dropping the info string of the opening fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	body, fenced := strings.CutPrefix(s, "```")
	if !fenced {
		return s
	}
	body = strings.TrimSuffix(body, "```")
	if first, rest, ok := strings.Cut(body, "\n"); ok && isInfoString(first) {
		body = rest
	}
	return strings.TrimSpace(body)
}

func isInfoString(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+'):
		default:
			return false
		}
	}
	return true
}
