package server

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type pageMessage struct {
	User bool
	Text string
	HTML template.HTML
}

type pageData struct {
	sessionView
	Messages []pageMessage
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, release := s.sessions.Acquire(w, r)
	data := pageData{sessionView: s.view(sess)}
	release()

	for _, m := range data.Transcript {
		pm := pageMessage{User: m.Role == domain.RoleUser, Text: m.Content}
		if !pm.User {
			pm.HTML = renderMarkdown(m.Content)
		}
		data.Messages = append(data.Messages, pm)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.Error(logModule, "render index", map[string]interface{}{"error": err})
	}
}
