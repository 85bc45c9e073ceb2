package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ignatius/models"
)

// ConversationStore is the persistence boundary. Get returns (nil, nil) when
// no conversation exists for the id. No locking contract is assumed beyond
// per-id read-your-writes; two concurrent turns on the same conversation may
// race, last write wins.
type ConversationStore interface {
	Create(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	Save(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
}

// TurnRequest is one inbound user turn. ConversationID empty means "start a
// new conversation". Topic, Viewpoint and Style are optional; Style selects
// the prompt template and unknown values fall back silently.
type TurnRequest struct {
	ConversationID string
	Message        string
	Topic          string
	Viewpoint      string
	Style          string
}

// ConversationService orchestrates a full turn: resolve or create the
// conversation, append the user message, generate the bot reply, fold it in,
// persist. Each request runs on its own goroutine; the service itself is
// stateless and safe for concurrent use.
type ConversationService struct {
	store      ConversationStore
	generator  *ResponseGenerator
	genTimeout time.Duration
}

func NewConversationService(store ConversationStore, generator *ResponseGenerator, genTimeout time.Duration) *ConversationService {
	if genTimeout <= 0 {
		genTimeout = 30 * time.Second
	}
	return &ConversationService{store: store, generator: generator, genTimeout: genTimeout}
}

// HandleTurn processes one user turn and returns the persisted conversation.
//
// The user message is persisted as soon as it is appended, before generation
// is attempted, so a generation failure cannot lose the user's turn. When
// generation fails after that first save, the already-persisted conversation
// is returned alongside the error so the caller can surface its id and
// re-issue the turn.
func (s *ConversationService) HandleTurn(ctx context.Context, req TurnRequest) (*models.Conversation, error) {
	conversation, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	reply, err := s.generator.Generate(genCtx, conversation, req.Style)
	if err != nil {
		log.Printf("generation failed for conversation %s: %v", conversation.ID.Hex(), err)
		return conversation, err
	}

	if err := s.foldReply(conversation, reply); err != nil {
		log.Printf("folding reply failed for conversation %s: %v", conversation.ID.Hex(), err)
		return conversation, err
	}

	saved, err := s.store.Save(ctx, conversation)
	if err != nil {
		if _, ok := err.(*models.ValidationError); ok {
			return conversation, err
		}
		return conversation, &ServiceError{Op: "failed to save conversation", Err: err}
	}
	log.Printf("completed turn for conversation %s (%d messages)", saved.ID.Hex(), len(saved.Messages))
	return saved, nil
}

// resolveConversation implements the create-or-continue semantics, leaving
// the conversation persisted with the user turn appended.
func (s *ConversationService) resolveConversation(ctx context.Context, req TurnRequest) (*models.Conversation, error) {
	if _, err := models.NewMessage(models.RoleUser, req.Message); err != nil {
		return nil, err
	}

	if req.ConversationID == "" {
		conversation := models.NewConversation(req.Topic, req.Viewpoint)
		if _, err := conversation.AddMessage(models.RoleUser, req.Message); err != nil {
			return nil, err
		}
		if err := conversation.Validate(); err != nil {
			return nil, err
		}
		created, err := s.store.Create(ctx, conversation)
		if err != nil {
			return nil, &ServiceError{Op: "failed to create conversation", Err: err}
		}
		log.Printf("created conversation %s", created.ID.Hex())
		return created, nil
	}

	oid, err := primitive.ObjectIDFromHex(req.ConversationID)
	if err != nil {
		return nil, &models.ValidationError{Reason: "invalid conversation ID format"}
	}
	conversation, err := s.store.Get(ctx, oid)
	if err != nil {
		return nil, &ServiceError{Op: "failed to fetch conversation", Err: err}
	}
	if conversation == nil {
		return nil, &NotFoundError{ID: req.ConversationID}
	}
	if _, err := conversation.AddMessage(models.RoleUser, req.Message); err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, conversation)
	if err != nil {
		return nil, &ServiceError{Op: "failed to save user turn", Err: err}
	}
	log.Printf("appended user turn to conversation %s", saved.ID.Hex())
	return saved, nil
}

// foldReply applies the generator's (topic?, text) result to the aggregate.
// A reply that violates the model bounds is the model's fault, so both paths
// surface as ResponseFormatError.
func (s *ConversationService) foldReply(conversation *models.Conversation, reply BotReply) error {
	if err := conversation.SetTopic(reply.Topic); err != nil {
		return &ResponseFormatError{Reason: "reply topic out of bounds", Err: err}
	}
	if _, err := conversation.AddMessage(models.RoleBot, reply.Text); err != nil {
		return &ResponseFormatError{Reason: "reply text out of bounds", Err: err}
	}
	return nil
}

// FetchConversation returns the full conversation for the id.
func (s *ConversationService) FetchConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if id == "" {
		return nil, &models.ValidationError{Reason: "conversation ID cannot be empty"}
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &models.ValidationError{Reason: "invalid conversation ID format"}
	}
	conversation, err := s.store.Get(ctx, oid)
	if err != nil {
		return nil, &ServiceError{Op: "failed to fetch conversation", Err: err}
	}
	if conversation == nil {
		return nil, &NotFoundError{ID: id}
	}
	return conversation, nil
}
