package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/studybuddy/internal/ai"
	"github.com/thywilljoshua/studybuddy/internal/domain"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/logger"
	"github.com/thywilljoshua/studybuddy/internal/study"
)

type stubExtractor struct {
	text string
}

func (s stubExtractor) Extract(_ context.Context, _ []byte, kind extract.Kind) (string, error) {
	if kind == extract.KindUnknown {
		return "", domain.ExtractionError("unsupported file type", nil)
	}
	return s.text, nil
}

type stubCompleter struct {
	fragments []string
	err       error
}

func (s stubCompleter) Complete(_ context.Context, _ []domain.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range s.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

type harness struct {
	handler http.Handler
	srv     *httptest.Server
	client  *http.Client
}

func newHarness(t *testing.T, completer ai.Completer) *harness {
	t.Helper()
	ctrl := study.NewController(stubExtractor{text: "2+2=4"}, completer, logger.NewNop())
	s := New(ctrl, logger.NewNop(), Options{MaxUploadBytes: 1 << 20, SessionTTL: time.Minute})
	handler := s.Routes()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{handler: handler, srv: srv, client: &http.Client{Jar: jar}}
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	res, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (h *harness) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	res, err := h.client.Post(h.srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (h *harness) upload(t *testing.T, target, filename, contentType string, data []byte) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, filename, contentType, data)
	res, err := h.client.Post(h.srv.URL+"/api/upload/"+target, ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

type sseEvent struct {
	Name string
	Data string
}

func readEvents(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestHealth(t *testing.T) {
	h := newHarness(t, stubCompleter{})
	res := h.get(t, "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, res))
}

func TestSessionFollowsCookie(t *testing.T) {
	h := newHarness(t, stubCompleter{})

	res := h.postJSON(t, "/api/subject", subjectRequest{Subject: "History"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	view := decode[sessionView](t, h.get(t, "/api/session"))
	assert.Equal(t, "History", view.Subject)
	assert.True(t, view.ChatEnabled)
	assert.Equal(t, "Ask a question about History or the uploaded problem...", view.Placeholder)
	assert.Len(t, view.Subjects, len(domain.Subjects))

	other, err := http.Get(h.srv.URL + "/api/session")
	require.NoError(t, err)
	defer other.Body.Close()
	assert.Equal(t, "Mathematics", decode[sessionView](t, other).Subject)
}

func TestUnknownSubject(t *testing.T) {
	h := newHarness(t, stubCompleter{})
	res := h.postJSON(t, "/api/subject", subjectRequest{Subject: "Astrology"})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "validation", decode[errorResponse](t, res).Kind)
}

func TestUploadProblem(t *testing.T) {
	h := newHarness(t, stubCompleter{})

	res := h.upload(t, "problem", "problem.png", "image/png", []byte("png bytes"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decode[uploadResponse](t, res)
	assert.Equal(t, "Image file uploaded and processed successfully!", body.Message)
	assert.Equal(t, "2+2=4", body.Session.CurrentProblem)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		filename    string
		contentType string
		status      int
		kind        string
	}{
		{name: "image into knowledge base", target: "knowledge", filename: "notes.png", contentType: "image/png", status: http.StatusUnprocessableEntity, kind: "extraction"},
		{name: "unsupported type", target: "problem", filename: "notes.txt", contentType: "text/plain", status: http.StatusUnprocessableEntity, kind: "extraction"},
		{name: "unknown target", target: "homework", filename: "p.pdf", contentType: "application/pdf", status: http.StatusBadRequest, kind: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, stubCompleter{})
			res := h.upload(t, tt.target, tt.filename, tt.contentType, []byte("data"))
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.kind, decode[errorResponse](t, res).Kind)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newHarness(t, stubCompleter{})
	body, ct := multipartBody(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 2<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/problem", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation")
}

func TestClear(t *testing.T) {
	h := newHarness(t, stubCompleter{})
	require.Equal(t, http.StatusOK, h.upload(t, "problem", "p.pdf", "application/pdf", []byte("%PDF")).StatusCode)

	res := h.postJSON(t, "/api/clear/problem", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decode[sessionView](t, res).CurrentProblem)

	res = h.postJSON(t, "/api/clear/everything", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestChatStreamsReply(t *testing.T) {
	h := newHarness(t, stubCompleter{fragments: []string{"The ", "answer", " is **4**."}})

	res := h.postJSON(t, "/api/chat", chatRequest{Message: "what is the answer?"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	events := readEvents(t, res.Body)
	require.Len(t, events, 4)
	for i, want := range []string{"The ", "answer", " is **4**."} {
		assert.Equal(t, "fragment", events[i].Name)
		var f fragmentEvent
		require.NoError(t, json.Unmarshal([]byte(events[i].Data), &f))
		assert.Equal(t, want, f.Text)
	}
	assert.Equal(t, "done", events[3].Name)
	var done doneEvent
	require.NoError(t, json.Unmarshal([]byte(events[3].Data), &done))
	assert.Equal(t, "The answer is **4**.", done.Reply)
	assert.Contains(t, string(done.HTML), "<strong>4</strong>")

	view := decode[sessionView](t, h.get(t, "/api/session"))
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleUser, Content: "what is the answer?"},
		{Role: domain.RoleAssistant, Content: "The answer is **4**."},
	}, view.Transcript)
}

func TestChatMidStreamFailure(t *testing.T) {
	h := newHarness(t, stubCompleter{fragments: []string{"The ", "answer"}, err: errors.New("connection reset")})

	res := h.postJSON(t, "/api/chat", chatRequest{Message: "what is the answer?"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	events := readEvents(t, res.Body)
	require.Len(t, events, 3)
	assert.Equal(t, "error", events[2].Name)
	var e errorResponse
	require.NoError(t, json.Unmarshal([]byte(events[2].Data), &e))
	assert.Equal(t, "completion", e.Kind)

	view := decode[sessionView](t, h.get(t, "/api/session"))
	assert.Equal(t, []domain.Message{{Role: domain.RoleUser, Content: "what is the answer?"}}, view.Transcript)
}

func TestChatFailsBeforeStreaming(t *testing.T) {
	tests := []struct {
		name      string
		completer ai.Completer
		message   string
		status    int
		kind      string
	}{
		{name: "no api key", completer: ai.Unconfigured{}, message: "hi", status: http.StatusServiceUnavailable, kind: "config"},
		{name: "empty prompt", completer: stubCompleter{}, message: "  ", status: http.StatusBadRequest, kind: "validation"},
		{name: "provider down", completer: stubCompleter{err: domain.CompletionError("An error occurred", nil)}, message: "hi", status: http.StatusBadGateway, kind: "completion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.completer)
			res := h.postJSON(t, "/api/chat", chatRequest{Message: tt.message})
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.kind, decode[errorResponse](t, res).Kind)
		})
	}
}

func TestIndexPage(t *testing.T) {
	h := newHarness(t, stubCompleter{fragments: []string{"Use *algebra*."}})
	require.Equal(t, http.StatusOK, h.upload(t, "problem", "p.pdf", "application/pdf", []byte("%PDF")).StatusCode)
	res := h.postJSON(t, "/api/chat", chatRequest{Message: "<b>help</b>"})
	_, _ = io.Copy(io.Discard, res.Body)

	page := h.get(t, "/")
	require.Equal(t, http.StatusOK, page.StatusCode)
	body, err := io.ReadAll(page.Body)
	require.NoError(t, err)
	html := string(body)

	assert.Contains(t, html, `<option value="Mathematics" selected>`)
	assert.Contains(t, html, "View current problem")
	assert.Contains(t, html, "2&#43;2=4")
	assert.Contains(t, html, "&lt;b&gt;help&lt;/b&gt;")
	assert.Contains(t, html, "<em>algebra</em>")
	assert.Contains(t, html, "Ask a question about Mathematics or the uploaded problem...")
}

func TestIndexWithoutAPIKey(t *testing.T) {
	h := newHarness(t, ai.Unconfigured{})
	body, err := io.ReadAll(h.get(t, "/").Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "Please add your API key")
	assert.NotContains(t, string(body), `id="chat-form"`)
}
