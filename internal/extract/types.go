package extract

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
)

// Kind is the file-kind tag the upload surface resolves before extraction.
type Kind string

const (
	KindUnknown Kind = ""
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
)

// Recognizer runs optical character recognition on a decoded raster image.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Unavailable stands in for an OCR engine that could not be set up. Every
// recognition fails with Err, so only image uploads are affected.
type Unavailable struct {
	Err error
}

func (u Unavailable) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	return "", u.Err
}

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// KindFromUpload maps the MIME type reported by the upload to a Kind,
// falling back to the filename extension when the type is missing or generic.
func KindFromUpload(mimeType, filename string) Kind {
	if k := kindFromMIME(mimeType); k != KindUnknown {
		return k
	}
	return kindFromMIME(mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))))
}

func kindFromMIME(mt string) Kind {
	if mt == "" {
		return KindUnknown
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	mt = strings.ToLower(mt)
	switch {
	case mt == "application/pdf":
		return KindPDF
	case imageTypes[mt]:
		return KindImage
	}
	return KindUnknown
}
