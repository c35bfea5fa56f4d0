package domain

import (
	"strconv"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a provider-agnostic chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Subject string

// Subjects is the fixed set offered in the subject picker, in display order.
var Subjects = []Subject{
	"Mathematics",
	"Science",
	"History",
	"Literature",
	"Computer Science",
}

// DefaultSubject is the picker's initial selection.
var DefaultSubject = Subjects[0]

// ParseSubject matches s case-insensitively against Subjects.
func ParseSubject(s string) (Subject, error) {
	s = strings.TrimSpace(s)
	for _, sub := range Subjects {
		if strings.EqualFold(string(sub), s) {
			return sub, nil
		}
	}
	return "", ValidationError("unknown subject "+strconv.Quote(s), nil)
}
