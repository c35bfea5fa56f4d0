package main

import (
	"context"
	"fmt"

	"github.com/thywilljoshua/studybuddy/internal/ai"
	"github.com/thywilljoshua/studybuddy/internal/config"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/logger"
)

const logModule = "main"

// newRecognizer picks the OCR engine for image uploads.
func newRecognizer(ctx context.Context, cfg *config.Config, log logger.ILogger) (extract.Recognizer, error) {
	switch cfg.OCR.Provider {
	case "", "tesseract":
		t := extract.NewTesseract(cfg.OCR.TesseractPath, cfg.OCR.TesseractLang)
		if !t.Available() {
			log.Warn(logModule, "tesseract not found, image uploads will fail", map[string]interface{}{"path": t.Path})
		}
		return t, nil
	case ai.ProviderGemini:
		g, err := ai.NewGemini(ctx, cfg.Keys.GoogleGemini, "")
		if err != nil {
			log.Warn(logModule, "gemini OCR unavailable, image uploads will fail", map[string]interface{}{
				"error": err.Error(),
			})
			return extract.Unavailable{Err: err}, nil
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.OCR.Provider)
	}
}

func newCompleter(ctx context.Context, cfg *config.Config, log logger.ILogger) ai.Completer {
	c, err := ai.NewCompleter(ctx, ai.Config{
		Provider: cfg.Ai.LLMProvider,
		APIKey:   cfg.APIKey(),
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OpenAIBaseURL,
	})
	if err != nil {
		log.Warn(logModule, "chat disabled", map[string]interface{}{
			"provider": cfg.Ai.LLMProvider,
			"error":    err.Error(),
		})
	}
	return c
}
