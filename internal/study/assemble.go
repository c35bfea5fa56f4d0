package study

import (
	"fmt"

	"github.com/thywilljoshua/studybuddy/internal/domain"
)

const systemTemplate = "You are an AI study assistant specializing in %s. " +
	"Your role is to help students understand concepts, answer questions, and provide explanations " +
	"in a clear, concise manner. Use examples and analogies when appropriate to aid understanding. " +
	"If a question is unclear, ask for clarification. Always encourage critical thinking and provide " +
	"resources for further learning when possible."

const groundingSentence = " If the student has uploaded a problem or expanded the knowledge base, " +
	"refer to that content when answering questions about it."

// SystemInstruction renders the leading instruction for a subject.
func SystemInstruction(subject domain.Subject, grounded bool) string {
	text := fmt.Sprintf(systemTemplate, subject)
	if grounded {
		text += groundingSentence
	}
	return text
}

// Assemble builds the message list sent to the model: one instruction, one
// context message per non-empty blob in the given order, then the
// transcript as is.
func Assemble(subject domain.Subject, blobs []Blob, transcript []domain.Message) []domain.Message {
	var context []domain.Message
	for _, b := range blobs {
		if b.Text == "" {
			continue
		}
		context = append(context, domain.Message{
			Role:    domain.RoleSystem,
			Content: b.Label() + ": " + b.Text,
		})
	}

	out := make([]domain.Message, 0, 1+len(context)+len(transcript))
	out = append(out, domain.Message{
		Role:    domain.RoleSystem,
		Content: SystemInstruction(subject, len(context) > 0),
	})
	out = append(out, context...)
	return append(out, transcript...)
}
