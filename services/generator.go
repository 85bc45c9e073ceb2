package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ignatius/models"
)

// BotReply is the structured shape the model must answer with. Topic is
// optional; Text is required.
type BotReply struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// ResponseGenerator turns a conversation into a validated (topic, text) pair
// by rendering a prompt and calling the model capability. It holds no state
// across invocations.
type ResponseGenerator struct {
	builder   *PromptBuilder
	completer Completer
	params    GenerationParams
}

func NewResponseGenerator(builder *PromptBuilder, completer Completer, params GenerationParams) *ResponseGenerator {
	return &ResponseGenerator{builder: builder, completer: completer, params: params}
}

// Generate renders the debate prompt for the conversation in the given style
// and returns the model's validated reply.
//
// Failure taxonomy: a transport or provider failure, a timeout, or an empty
// completion is a GenerationError; a completion that is not the expected
// JSON shape, or that omits the "text" field, is a ResponseFormatError.
// Neither is retried here.
func (g *ResponseGenerator) Generate(ctx context.Context, conversation *models.Conversation, style string) (BotReply, error) {
	prompt, err := g.builder.Render(PromptTypeDebate, style, PromptVars{
		Conversation: conversation.Transcript(),
		Topic:        conversation.Topic,
	})
	if err != nil {
		return BotReply{}, err
	}

	raw, err := g.completer.Complete(ctx, prompt, g.params)
	if err != nil {
		return BotReply{}, &GenerationError{Err: err}
	}

	cleaned := cleanModelOutput(raw)
	if cleaned == "" {
		return BotReply{}, &GenerationError{Err: errors.New("empty response from model")}
	}

	var reply BotReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return BotReply{}, &ResponseFormatError{Reason: "reply is not valid JSON", Err: err}
	}
	if strings.TrimSpace(reply.Text) == "" {
		return BotReply{}, &ResponseFormatError{Reason: `reply missing required "text" field`}
	}
	reply.Topic = strings.TrimSpace(reply.Topic)
	reply.Text = strings.TrimSpace(reply.Text)
	return reply, nil
}
