package extract

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

// ExtractPages returns the text of every page of a PDF in page order. Pages
// without a content stream, and pages whose content cannot be decoded,
// yield "".
func ExtractPages(data []byte) (pages []string, err error) {
	// rsc.io/pdf panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = domain.ExtractionError("Error processing PDF", fmt.Errorf("%v", r))
		}
	}()

	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.ExtractionError("Error processing PDF", err)
	}
	n := doc.NumPage()
	pages = make([]string, n)
	for i := range pages {
		pages[i] = safePageText(doc.Page(i + 1))
	}
	return pages, nil
}

func safePageText(p rpdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	return pageText(p)
}

// contentStreams returns the page's content streams in order. /Contents may
// be a single stream or an array of them.
func contentStreams(p rpdf.Page) []rpdf.Value {
	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case rpdf.Stream:
		return []rpdf.Value{contents}
	case rpdf.Array:
		var out []rpdf.Value
		for i := 0; i < contents.Len(); i++ {
			if s := contents.Index(i); s.Kind() == rpdf.Stream {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func pageText(p rpdf.Page) string {
	if p.V.IsNull() {
		return ""
	}
	w := &textWriter{page: p}
	for _, strm := range contentStreams(p) {
		rpdf.Interpret(strm, w.op)
	}
	return w.buf.String()
}

// textWriter collects shown strings from content stream operators, breaking
// lines when the text position moves vertically.
type textWriter struct {
	page rpdf.Page
	enc  rpdf.TextEncoding
	y    float64
	buf  strings.Builder
}

func (w *textWriter) op(stk *rpdf.Stack, op string) {
	args := make([]rpdf.Value, stk.Len())
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}

	switch op {
	case "Tf":
		if len(args) == 2 {
			w.enc = w.page.Font(args[0].Name()).Encoder()
		}
	case "Tj":
		if len(args) == 1 {
			w.show(args[0])
		}
	case "TJ":
		if len(args) == 1 {
			for i := 0; i < args[0].Len(); i++ {
				w.show(args[0].Index(i))
			}
		}
	case "'", "\"":
		w.newline()
		if len(args) > 0 {
			w.show(args[len(args)-1])
		}
	case "T*":
		w.newline()
	case "Td", "TD":
		if len(args) == 2 && args[1].Float64() != 0 {
			w.newline()
		}
	case "Tm":
		if len(args) == 6 {
			if y := args[5].Float64(); y != w.y {
				w.y = y
				w.newline()
			}
		}
	}
}

func (w *textWriter) show(v rpdf.Value) {
	if v.Kind() != rpdf.String {
		return
	}
	s := v.RawString()
	if w.enc != nil {
		s = w.enc.Decode(s)
	}
	w.buf.WriteString(s)
}

func (w *textWriter) newline() {
	if n := w.buf.Len(); n > 0 && w.buf.String()[n-1] != '\n' {
		w.buf.WriteByte('\n')
	}
}
