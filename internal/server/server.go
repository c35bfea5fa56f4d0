// Package server is the browser-facing surface of the study assistant: an
// HTML page plus a small JSON API, with replies streamed as server-sent
// events.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/thywilljoshua/studybuddy/internal/logger"
	"github.com/thywilljoshua/studybuddy/internal/study"
)

const logModule = "server"

type Options struct {
	MaxUploadBytes int64
	SessionTTL     time.Duration
}

type Server struct {
	ctrl      *study.Controller
	sessions  *SessionStore
	log       logger.ILogger
	maxUpload int64
}

func New(ctrl *study.Controller, log logger.ILogger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		ctrl:      ctrl,
		sessions:  NewSessionStore(opts.SessionTTL),
		log:       log,
		maxUpload: opts.MaxUploadBytes,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Post("/subject", s.handleSubject)
		r.Post("/upload/{blob}", s.handleUpload)
		r.Post("/clear/{target}", s.handleClear)
		r.Post("/chat", s.handleChat)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug(logModule, "request", map[string]interface{}{
			"request_id": chimiddleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		})
	})
}
