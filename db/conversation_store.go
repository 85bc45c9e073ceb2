package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ignatius/models"
)

const conversationCollection = "conversations"

// ConversationStore persists conversations in the "conversations" collection.
// It validates every conversation before writing it.
type ConversationStore struct {
	database   *mongo.Database
	collection *mongo.Collection
}

func NewConversationStore(database *mongo.Database) *ConversationStore {
	return &ConversationStore{
		database:   database,
		collection: database.Collection(conversationCollection),
	}
}

// Create inserts a new conversation and assigns its id.
func (s *ConversationStore) Create(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := conversation.Validate(); err != nil {
		return nil, err
	}
	if conversation.ID.IsZero() {
		conversation.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conversation, nil
}

// Get fetches a conversation by id, returning (nil, nil) when absent.
func (s *ConversationStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return &conversation, nil
}

// Save replaces the stored conversation. Last write wins; no optimistic
// concurrency check is made.
func (s *ConversationStore) Save(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := conversation.Validate(); err != nil {
		return nil, err
	}
	if conversation.ID.IsZero() {
		return s.Create(ctx, conversation)
	}
	filter := bson.M{"_id": conversation.ID}
	if _, err := s.collection.ReplaceOne(ctx, filter, conversation); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	return conversation, nil
}

// Ping verifies the store is reachable.
func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.database.Client().Ping(ctx, nil)
}
