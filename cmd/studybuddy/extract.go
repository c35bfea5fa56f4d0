package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/studybuddy/internal/config"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/logger"
)

func extractCmd() *cobra.Command {
	var ocr string

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF or image, as an upload would see it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			kind := extract.KindFromUpload("", path)
			if kind == extract.KindUnknown {
				return fmt.Errorf("%s: unsupported file type", path)
			}

			cfg := config.Load()
			if cmd.Flags().Changed("ocr") {
				cfg.OCR.Provider = strings.ToLower(ocr)
			}

			var recognizer extract.Recognizer
			if kind == extract.KindImage {
				recognizer, err = newRecognizer(cmd.Context(), cfg, logger.NewNop())
				if err != nil {
					return err
				}
			}

			text, err := extract.New(recognizer).Extract(cmd.Context(), data, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVar(&ocr, "ocr", "tesseract", "OCR engine for images: tesseract|gemini (overrides OCR_PROVIDER)")
	return cmd
}
