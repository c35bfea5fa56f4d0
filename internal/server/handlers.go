package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thywilljoshua/studybuddy/internal/domain"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/study"
)

type sessionView struct {
	Subject        string           `json:"subject"`
	Subjects       []string         `json:"subjects"`
	CurrentProblem string           `json:"current_problem"`
	KnowledgeBase  string           `json:"knowledge_base"`
	Transcript     []domain.Message `json:"transcript"`
	ChatEnabled    bool             `json:"chat_enabled"`
	Placeholder    string           `json:"placeholder"`
}

func (s *Server) view(sess *study.Session) sessionView {
	subjects := make([]string, len(domain.Subjects))
	for i, sub := range domain.Subjects {
		subjects[i] = string(sub)
	}
	transcript := sess.Transcript()
	if transcript == nil {
		transcript = []domain.Message{}
	}
	return sessionView{
		Subject:        string(sess.Subject()),
		Subjects:       subjects,
		CurrentProblem: sess.Get(study.BlobCurrentProblem),
		KnowledgeBase:  sess.Get(study.BlobKnowledgeBase),
		Transcript:     transcript,
		ChatEnabled:    s.ctrl.ChatEnabled(),
		Placeholder:    placeholder(sess.Subject()),
	}
}

func placeholder(subject domain.Subject) string {
	return fmt.Sprintf("Ask a question about %s or the uploaded problem...", subject)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, release := s.sessions.Acquire(w, r)
	defer release()
	writeJSON(w, http.StatusOK, s.view(sess))
}

type subjectRequest struct {
	Subject string `json:"subject"`
}

func (s *Server) handleSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ValidationError("invalid request body", err))
		return
	}

	sess, release := s.sessions.Acquire(w, r)
	defer release()

	if err := s.ctrl.SelectSubject(sess, req.Subject); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

var uploadTargets = map[string]study.BlobName{
	"problem":   study.BlobCurrentProblem,
	"knowledge": study.BlobKnowledgeBase,
}

type uploadResponse struct {
	Message string      `json:"message"`
	Session sessionView `json:"session"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	blob, ok := uploadTargets[chi.URLParam(r, "blob")]
	if !ok {
		writeError(w, domain.ValidationError("unknown upload target "+chi.URLParam(r, "blob"), nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, domain.ValidationError(fmt.Sprintf("file exceeds the %d MB upload limit", s.maxUpload>>20), err))
			return
		}
		writeError(w, domain.ValidationError("missing file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, domain.ValidationError("could not read upload", err))
		return
	}
	kind := extract.KindFromUpload(header.Header.Get("Content-Type"), header.Filename)

	sess, release := s.sessions.Acquire(w, r)
	defer release()

	msg, err := s.ctrl.Upload(r.Context(), sess, blob, data, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: msg, Session: s.view(sess)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	target, err := study.ParseClearTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, err)
		return
	}

	sess, release := s.sessions.Acquire(w, r)
	defer release()

	if err := s.ctrl.Clear(sess, target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

type chatRequest struct {
	Message string `json:"message"`
}

type fragmentEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	Reply string        `json:"reply"`
	HTML  template.HTML `json:"html"`
}

// handleChat streams the reply as server-sent events. Failures before the
// first fragment are plain JSON errors with a matching status; later ones
// arrive as an error event.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ValidationError("invalid request body", err))
		return
	}

	sess, release := s.sessions.Acquire(w, r)
	defer release()

	stream := newEventStream(w)
	reply, err := s.ctrl.Ask(r.Context(), sess, req.Message, func(fragment string) {
		stream.send("fragment", fragmentEvent{Text: fragment})
	})
	if err != nil {
		if !stream.started {
			writeError(w, err)
			return
		}
		stream.send("error", errorPayload(err))
		return
	}
	stream.send("done", doneEvent{Reply: reply, HTML: renderMarkdown(reply)})
}
