// Package ai talks to hosted chat models. Replies are exposed as lazy
// fragment sequences that the caller pulls in order.
package ai

import (
	"context"
	"iter"
	"strings"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Completer streams a reply for an ordered message history. The sequence
// yields text fragments; a non-nil error ends it.
type Completer interface {
	Complete(ctx context.Context, messages []domain.Message) iter.Seq2[string, error]
}

// Config selects and configures a Completer.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewCompleter builds the Completer for cfg.Provider. On failure it still
// returns a usable Unconfigured completer alongside the error.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		c, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		err = domain.ConfigurationError("unknown LLM provider "+cfg.Provider, nil)
	}
	if err != nil {
		return Unconfigured{Err: err}, err
	}
	return c, nil
}

// Unconfigured stands in when no usable API key is configured. Every
// completion fails with a configuration error before any request is made.
type Unconfigured struct {
	Err error
}

func (u Unconfigured) Complete(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	return Fail(u.Reason())
}

// Reason is the configuration error every completion fails with.
func (u Unconfigured) Reason() error {
	if domain.IsKind(u.Err, domain.KindConfig) {
		return u.Err
	}
	return domain.ConfigurationError("Please add your API key to the app's configuration.", u.Err)
}

// Fail returns a sequence that yields only err.
func Fail(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}

func missingKey(apiKey string) bool {
	return strings.TrimSpace(apiKey) == ""
}
