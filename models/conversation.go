package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTopicLength bounds both the topic and viewpoint labels.
const MaxTopicLength = 200

// Conversation is a debate between a user and the bot. It owns its messages;
// they are embedded and have no lifecycle outside the conversation.
type Conversation struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Topic     string             `json:"topic" bson:"topic"`
	Viewpoint string             `json:"viewpoint" bson:"viewpoint"`
	Messages  []Message          `json:"messages" bson:"messages"`
	CreatedAt time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updatedAt"`
}

// NewConversation creates an empty, not-yet-persisted conversation. At least
// one message must be added before it passes Validate.
func NewConversation(topic, viewpoint string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		Topic:     strings.TrimSpace(topic),
		Viewpoint: strings.TrimSpace(viewpoint),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a validated message and advances UpdatedAt. On
// validation failure the conversation is left untouched.
func (c *Conversation) AddMessage(role Role, text string) (Message, error) {
	msg, err := NewMessage(role, text)
	if err != nil {
		return Message{}, err
	}
	c.Messages = append(c.Messages, msg)
	c.touch()
	return msg, nil
}

// SetTopic overwrites the topic, trimming it first. Empty input is ignored
// so a bot reply without a topic never clears an existing one.
func (c *Conversation) SetTopic(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return &ValidationError{Reason: fmt.Sprintf("topic exceeds %d characters", MaxTopicLength)}
	}
	c.Topic = topic
	c.touch()
	return nil
}

// LastMessageBy returns the most recent message with the given role, or nil
// if none exists. Linear scan; conversations stay small.
func (c *Conversation) LastMessageBy(role Role) *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == role {
			return &c.Messages[i]
		}
	}
	return nil
}

// Transcript renders the conversation as one "role: text" line per message,
// in insertion order.
func (c *Conversation) Transcript() string {
	var sb strings.Builder
	for i, msg := range c.Messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Text)
	}
	return sb.String()
}

// Validate enforces the conversation invariants. It must pass before every
// persistence. An empty topic is legitimate until the first bot turn sets one.
func (c *Conversation) Validate() error {
	if len(c.Messages) == 0 {
		return &ValidationError{Reason: "conversation must have at least one message"}
	}
	if utf8.RuneCountInString(c.Topic) > MaxTopicLength {
		return &ValidationError{Reason: fmt.Sprintf("topic exceeds %d characters", MaxTopicLength)}
	}
	if utf8.RuneCountInString(c.Viewpoint) > MaxTopicLength {
		return &ValidationError{Reason: fmt.Sprintf("viewpoint exceeds %d characters", MaxTopicLength)}
	}
	for _, msg := range c.Messages {
		if err := msg.Validate(); err != nil {
			return err
		}
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return &ValidationError{Reason: "updatedAt precedes createdAt"}
	}
	return nil
}

// touch advances UpdatedAt strictly forward even when the clock has not
// moved between two mutations in the same turn.
func (c *Conversation) touch() {
	now := time.Now().UTC()
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	c.UpdatedAt = now
}
