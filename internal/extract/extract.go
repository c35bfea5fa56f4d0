// Package extract turns uploaded PDFs and images into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

// Extractor dispatches on the declared Kind: page text for PDFs, OCR for images.
type Extractor struct {
	ocr Recognizer
}

func New(ocr Recognizer) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract returns the plain text of data. The decision between PDF and OCR
// extraction is made from kind alone; content is never sniffed.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind Kind) (string, error) {
	switch kind {
	case KindPDF:
		pages, err := ExtractPages(data)
		if err != nil {
			return "", err
		}
		return strings.Join(pages, ""), nil
	case KindImage:
		return e.recognize(ctx, data)
	default:
		return "", domain.ExtractionError("unsupported file type", nil)
	}
}

func (e *Extractor) recognize(ctx context.Context, data []byte) (string, error) {
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", domain.ExtractionError("Error processing image", err)
	}
	if e.ocr == nil {
		return "", domain.ExtractionError("Error processing image", errors.New("no OCR engine configured"))
	}
	text, err := e.ocr.Recognize(ctx, data, "image/"+format)
	if err != nil {
		return "", domain.ExtractionError("Error processing image", err)
	}
	return text, nil
}
