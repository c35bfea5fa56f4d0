package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/thywilljoshua/studybuddy/internal/study"
)

const sessionCookie = "studybuddy_session"

type sessionEntry struct {
	mu      sync.Mutex
	session *study.Session
}

// SessionStore keeps one study session per browser, expiring idle ones.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(ttl, ttl/6),
		ttl:   ttl,
	}
}

// Acquire returns the caller's session locked for exclusive use, creating one
// (and its cookie) when the request carries no live id. The release func must
// be called when the action is done.
func (s *SessionStore) Acquire(w http.ResponseWriter, r *http.Request) (*study.Session, func()) {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			id = c.Value
		}
	}

	entry, found := s.get(id)
	if !found {
		if id == "" {
			id = uuid.NewString()
		}
		entry = s.create(id)
	}
	// Refresh the idle timer on every action.
	s.cache.Set(id, entry, cache.DefaultExpiration)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	entry.mu.Lock()
	return entry.session, entry.mu.Unlock
}

func (s *SessionStore) Len() int { return s.cache.ItemCount() }

func (s *SessionStore) get(id string) (*sessionEntry, bool) {
	if id == "" {
		return nil, false
	}
	if x, found := s.cache.Get(id); found {
		return x.(*sessionEntry), true
	}
	return nil, false
}

func (s *SessionStore) create(id string) *sessionEntry {
	entry := &sessionEntry{session: study.NewSession()}
	if err := s.cache.Add(id, entry, cache.DefaultExpiration); err != nil {
		// Lost a race with a concurrent request for the same id.
		if existing, found := s.get(id); found {
			return existing
		}
	}
	return entry
}
