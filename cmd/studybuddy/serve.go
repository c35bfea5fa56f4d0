package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/studybuddy/internal/config"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/logger"
	"github.com/thywilljoshua/studybuddy/internal/server"
	"github.com/thywilljoshua/studybuddy/internal/study"
)

func serveCmd() *cobra.Command {
	var port string
	var provider string
	var model string
	var ocr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the study assistant web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.App.Port = port
			}
			if flags.Changed("provider") {
				cfg.Ai.LLMProvider = strings.ToLower(provider)
			}
			if flags.Changed("model") {
				cfg.Ai.LLMModel = model
			}
			if flags.Changed("ocr") {
				cfg.OCR.Provider = strings.ToLower(ocr)
			}

			log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			recognizer, err := newRecognizer(ctx, cfg, log)
			if err != nil {
				return err
			}
			ctrl := study.NewController(extract.New(recognizer), newCompleter(ctx, cfg, log), log)
			app := server.New(ctrl, log, server.Options{
				MaxUploadBytes: cfg.MaxUploadBytes(),
				SessionTTL:     cfg.SessionTTL(),
			})

			srv := &http.Server{
				Addr:              ":" + cfg.App.Port,
				Handler:           app.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(logModule, "listening", map[string]interface{}{
					"addr":         srv.Addr,
					"provider":     cfg.Ai.LLMProvider,
					"ocr":          cfg.OCR.Provider,
					"chat_enabled": ctrl.ChatEnabled(),
				})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info(logModule, "shutting down", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "8501", "HTTP port (overrides APP_PORT)")
	cmd.Flags().StringVar(&provider, "provider", "openai", "LLM provider: openai|gemini (overrides LLM_PROVIDER)")
	cmd.Flags().StringVar(&model, "model", "", "model id (overrides LLM_MODEL)")
	cmd.Flags().StringVar(&ocr, "ocr", "tesseract", "OCR engine for images: tesseract|gemini (overrides OCR_PROVIDER)")
	return cmd
}
