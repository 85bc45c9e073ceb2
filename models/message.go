package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MaxTextLength is the maximum number of characters allowed in a message.
const MaxTextLength = 2000

// Message represents a single turn in a conversation. Messages are embedded
// in their Conversation and have no identity of their own.
type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Text      string    `json:"text" bson:"text"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewMessage builds a validated message with the creation time set.
// The text is trimmed before validation.
func NewMessage(role Role, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if role != RoleUser && role != RoleBot {
		return Message{}, &ValidationError{Reason: fmt.Sprintf("invalid role: %q, must be %q or %q", role, RoleUser, RoleBot)}
	}
	if text == "" {
		return Message{}, &ValidationError{Reason: "message text cannot be empty or only whitespace"}
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Message{}, &ValidationError{Reason: fmt.Sprintf("message text exceeds %d characters", MaxTextLength)}
	}
	return Message{Role: role, Text: text, Timestamp: time.Now().UTC()}, nil
}

// Validate re-checks the message invariants, e.g. after decoding from the store.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleBot {
		return &ValidationError{Reason: fmt.Sprintf("invalid role: %q", m.Role)}
	}
	trimmed := strings.TrimSpace(m.Text)
	if trimmed == "" {
		return &ValidationError{Reason: "message text cannot be empty or only whitespace"}
	}
	if utf8.RuneCountInString(trimmed) > MaxTextLength {
		return &ValidationError{Reason: fmt.Sprintf("message text exceeds %d characters", MaxTextLength)}
	}
	return nil
}
