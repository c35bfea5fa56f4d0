package study

import (
	"slices"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

type BlobName string

const (
	BlobKnowledgeBase  BlobName = "knowledge-base"
	BlobCurrentProblem BlobName = "current-problem"
)

// blobOrder is the order in which blobs reach the model.
var blobOrder = []BlobName{BlobKnowledgeBase, BlobCurrentProblem}

var blobLabels = map[BlobName]string{
	BlobKnowledgeBase:  "Additional knowledge",
	BlobCurrentProblem: "Current problem",
}

// KnowledgeSeparator precedes every text appended to a blob.
const KnowledgeSeparator = "\n\nNew Information:\n"

func (n BlobName) Label() string { return blobLabels[n] }

func (n BlobName) valid() bool {
	_, ok := blobLabels[n]
	return ok
}

type Blob struct {
	Name BlobName
	Text string
}

func (b Blob) Label() string { return b.Name.Label() }

// Session is the state of one study conversation. It is not safe for
// concurrent use; callers serialize actions on it.
type Session struct {
	subject    domain.Subject
	blobs      map[BlobName]string
	transcript []domain.Message
}

func NewSession() *Session {
	return &Session{
		subject: domain.DefaultSubject,
		blobs:   make(map[BlobName]string, len(blobOrder)),
	}
}

func (s *Session) Subject() domain.Subject { return s.subject }

// SetSubject switches the subject. A different subject starts a fresh
// transcript; uploaded content is kept. It reports whether anything changed.
func (s *Session) SetSubject(subject domain.Subject) bool {
	if subject == s.subject {
		return false
	}
	s.subject = subject
	s.transcript = nil
	return true
}

func (s *Session) Get(name BlobName) string { return s.blobs[name] }

func (s *Session) Set(name BlobName, text string) { s.blobs[name] = text }

func (s *Session) Append(name BlobName, text string) {
	s.blobs[name] += KnowledgeSeparator + text
}

func (s *Session) Clear(name BlobName) { delete(s.blobs, name) }

// Blobs returns every blob in assembly order, empty ones included.
func (s *Session) Blobs() []Blob {
	out := make([]Blob, 0, len(blobOrder))
	for _, name := range blobOrder {
		out = append(out, Blob{Name: name, Text: s.blobs[name]})
	}
	return out
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []domain.Message {
	return slices.Clone(s.transcript)
}

func (s *Session) addMessage(role domain.Role, content string) {
	s.transcript = append(s.transcript, domain.Message{Role: role, Content: content})
}

func (s *Session) ClearTranscript() { s.transcript = nil }

// Reset drops the transcript and all uploaded content. The subject stays.
func (s *Session) Reset() {
	s.transcript = nil
	clear(s.blobs)
}
