package study

import (
	"context"
	"strings"

	"github.com/thywilljoshua/studybuddy/internal/ai"
	"github.com/thywilljoshua/studybuddy/internal/domain"
	"github.com/thywilljoshua/studybuddy/internal/extract"
	"github.com/thywilljoshua/studybuddy/internal/logger"
)

const logModule = "study"

// Extractor turns uploaded bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, kind extract.Kind) (string, error)
}

type ClearTarget string

const (
	ClearChat      ClearTarget = "chat"
	ClearProblem   ClearTarget = "problem"
	ClearKnowledge ClearTarget = "knowledge"
	ClearAll       ClearTarget = "all"
)

func ParseClearTarget(s string) (ClearTarget, error) {
	switch t := ClearTarget(strings.ToLower(strings.TrimSpace(s))); t {
	case ClearChat, ClearProblem, ClearKnowledge, ClearAll:
		return t, nil
	}
	return "", domain.ValidationError("unknown clear target "+s, nil)
}

// Controller applies user actions to a Session. It holds no session state of
// its own and can be shared between sessions.
type Controller struct {
	extractor Extractor
	completer ai.Completer
	log       logger.ILogger
}

func NewController(extractor Extractor, completer ai.Completer, log logger.ILogger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	if completer == nil {
		completer = ai.Unconfigured{}
	}
	return &Controller{extractor: extractor, completer: completer, log: log}
}

// ChatEnabled is false when no completion backend is configured.
func (c *Controller) ChatEnabled() bool {
	_, unconfigured := c.completer.(ai.Unconfigured)
	return !unconfigured
}

func (c *Controller) SelectSubject(s *Session, name string) error {
	subject, err := domain.ParseSubject(name)
	if err != nil {
		return err
	}
	if s.SetSubject(subject) {
		c.log.Info(logModule, "subject changed", map[string]interface{}{"subject": string(subject)})
	}
	return nil
}

// Upload extracts data and stores it: the knowledge base grows, the current
// problem is replaced. On error the session is left as it was. The returned
// string is a message for the user.
func (c *Controller) Upload(ctx context.Context, s *Session, blob BlobName, data []byte, kind extract.Kind) (string, error) {
	if !blob.valid() {
		return "", domain.ValidationError("unknown upload target "+string(blob), nil)
	}
	if blob == BlobKnowledgeBase && kind != extract.KindPDF {
		return "", domain.ExtractionError("The knowledge base accepts PDF files only", nil)
	}

	text, err := c.extractor.Extract(ctx, data, kind)
	if err != nil {
		c.log.Warn(logModule, "extraction failed", map[string]interface{}{
			"blob": string(blob), "kind": string(kind), "error": err.Error(),
		})
		return "", err
	}

	details := map[string]interface{}{"blob": string(blob), "kind": string(kind), "chars": len(text)}
	if blob == BlobKnowledgeBase {
		s.Append(blob, text)
		c.log.Info(logModule, "knowledge base expanded", details)
		return "Knowledge base expanded successfully!", nil
	}

	s.Set(blob, text)
	c.log.Info(logModule, "problem uploaded", details)
	if kind == extract.KindImage {
		return "Image file uploaded and processed successfully!", nil
	}
	return "PDF file uploaded and processed successfully!", nil
}

func (c *Controller) Clear(s *Session, target ClearTarget) error {
	switch target {
	case ClearChat:
		s.ClearTranscript()
	case ClearProblem:
		s.Clear(BlobCurrentProblem)
	case ClearKnowledge:
		s.Clear(BlobKnowledgeBase)
	case ClearAll:
		s.Reset()
	default:
		return domain.ValidationError("unknown clear target "+string(target), nil)
	}
	c.log.Debug(logModule, "cleared", map[string]interface{}{"target": string(target)})
	return nil
}

// Ask records prompt, streams the model's answer through onFragment and
// commits it to the transcript once the stream has ended cleanly. A failed
// stream keeps the user's message and adds nothing else.
func (c *Controller) Ask(ctx context.Context, s *Session, prompt string, onFragment func(string)) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.ValidationError("Please enter a question", nil)
	}
	if u, ok := c.completer.(ai.Unconfigured); ok {
		return "", u.Reason()
	}

	s.addMessage(domain.RoleUser, prompt)
	messages := Assemble(s.Subject(), s.Blobs(), s.Transcript())

	reply, err := Collect(c.completer.Complete(ctx, messages), onFragment)
	if err != nil {
		c.log.Error(logModule, "completion failed", map[string]interface{}{
			"subject": string(s.Subject()), "messages": len(messages), "error": err,
		})
		return "", err
	}

	s.addMessage(domain.RoleAssistant, reply)
	c.log.Info(logModule, "reply committed", map[string]interface{}{
		"subject": string(s.Subject()), "chars": len(reply),
	})
	return reply, nil
}
