package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ignatius/models"
)

// fakeStore is an in-memory ConversationStore. It snapshots conversations on
// every write so callers mutating their copy cannot alias stored state.
type fakeStore struct {
	conversations map[primitive.ObjectID]*models.Conversation
	creates       int
	saves         int
	gets          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: make(map[primitive.ObjectID]*models.Conversation)}
}

func snapshot(conversation *models.Conversation) *models.Conversation {
	clone := *conversation
	clone.Messages = append([]models.Message(nil), conversation.Messages...)
	return &clone
}

func (f *fakeStore) Create(_ context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := conversation.Validate(); err != nil {
		return nil, err
	}
	f.creates++
	conversation.ID = primitive.NewObjectID()
	f.conversations[conversation.ID] = snapshot(conversation)
	return conversation, nil
}

func (f *fakeStore) Get(_ context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	f.gets++
	stored, ok := f.conversations[id]
	if !ok {
		return nil, nil
	}
	return snapshot(stored), nil
}

func (f *fakeStore) Save(_ context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := conversation.Validate(); err != nil {
		return nil, err
	}
	f.saves++
	f.conversations[conversation.ID] = snapshot(conversation)
	return conversation, nil
}

func (f *fakeStore) writes() int { return f.creates + f.saves }

func (f *fakeStore) botMessages(id primitive.ObjectID) int {
	stored, ok := f.conversations[id]
	if !ok {
		return 0
	}
	n := 0
	for _, msg := range stored.Messages {
		if msg.Role == models.RoleBot {
			n++
		}
	}
	return n
}

func testService(t *testing.T, store ConversationStore, completer Completer) *ConversationService {
	t.Helper()
	return NewConversationService(store, testGenerator(t, completer), 5*time.Second)
}

func TestHandleTurnNewConversation(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{output: `{"topic":"Pets","text":"Dogs are objectively superior companions."}`}
	service := testService(t, store, completer)

	conversation, err := service.HandleTurn(context.Background(), TurnRequest{
		Message: "Cats are better than dogs",
	})
	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.False(t, conversation.ID.IsZero())
	assert.Equal(t, "Pets", conversation.Topic)

	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, models.RoleUser, conversation.Messages[0].Role)
	assert.Equal(t, "Cats are better than dogs", conversation.Messages[0].Text)
	assert.Equal(t, models.RoleBot, conversation.Messages[1].Role)
	assert.Equal(t, "Dogs are objectively superior companions.", conversation.Messages[1].Text)

	// user turn persisted on create, full conversation on save
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 1, store.saves)
}

func TestHandleTurnExistingConversation(t *testing.T) {
	store := newFakeStore()
	seeded := models.NewConversation("Pets", "")
	seeded.AddMessage(models.RoleUser, "Cats are better than dogs")
	seeded.AddMessage(models.RoleBot, "Dogs are loyal.")
	seeded.AddMessage(models.RoleUser, "Loyalty is overrated")
	_, err := store.Create(context.Background(), seeded)
	require.NoError(t, err)

	completer := &fakeCompleter{output: `{"text":"Changing your mind proves my point."}`}
	service := testService(t, store, completer)

	conversation, err := service.HandleTurn(context.Background(), TurnRequest{
		ConversationID: seeded.ID.Hex(),
		Message:        "Actually I changed my mind",
	})
	require.NoError(t, err)
	require.Len(t, conversation.Messages, 5)

	assert.Equal(t, "Cats are better than dogs", conversation.Messages[0].Text)
	assert.Equal(t, "Dogs are loyal.", conversation.Messages[1].Text)
	assert.Equal(t, "Loyalty is overrated", conversation.Messages[2].Text)
	assert.Equal(t, models.RoleUser, conversation.Messages[3].Role)
	assert.Equal(t, "Actually I changed my mind", conversation.Messages[3].Text)
	assert.Equal(t, models.RoleBot, conversation.Messages[4].Role)

	// reply had no topic, the existing one stays
	assert.Equal(t, "Pets", conversation.Topic)
}

func TestHandleTurnUnknownConversation(t *testing.T) {
	store := newFakeStore()
	service := testService(t, store, &fakeCompleter{})

	_, err := service.HandleTurn(context.Background(), TurnRequest{
		ConversationID: primitive.NewObjectID().Hex(),
		Message:        "hello",
	})
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Zero(t, store.writes())
}

func TestHandleTurnMalformedID(t *testing.T) {
	store := newFakeStore()
	service := testService(t, store, &fakeCompleter{})

	_, err := service.HandleTurn(context.Background(), TurnRequest{
		ConversationID: "not-a-hex-id",
		Message:        "hello",
	})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, store.gets)
	assert.Zero(t, store.writes())
}

func TestHandleTurnGenerationFailureKeepsUserTurn(t *testing.T) {
	store := newFakeStore()
	seeded := models.NewConversation("Pets", "")
	seeded.AddMessage(models.RoleUser, "Cats are better than dogs")
	_, err := store.Create(context.Background(), seeded)
	require.NoError(t, err)

	completer := &fakeCompleter{err: errors.New("upstream timeout")}
	service := testService(t, store, completer)

	conversation, err := service.HandleTurn(context.Background(), TurnRequest{
		ConversationID: seeded.ID.Hex(),
		Message:        "And cats are cleaner too",
	})
	var generationErr *GenerationError
	require.ErrorAs(t, err, &generationErr)

	// no bot message persisted, but the user turn survived
	assert.Equal(t, 0, store.botMessages(seeded.ID))
	stored, _ := store.Get(context.Background(), seeded.ID)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "And cats are cleaner too", stored.Messages[1].Text)

	// the mutated conversation rides along with the error for retry
	require.NotNil(t, conversation)
	assert.Equal(t, seeded.ID, conversation.ID)
}

func TestHandleTurnWhitespaceMessage(t *testing.T) {
	store := newFakeStore()
	service := testService(t, store, &fakeCompleter{})

	_, err := service.HandleTurn(context.Background(), TurnRequest{Message: "   "})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, store.gets)
	assert.Zero(t, store.writes())
}

func TestHandleTurnFormatFailureNotPersisted(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{output: `{"topic":"Pets"}`}
	service := testService(t, store, completer)

	conversation, err := service.HandleTurn(context.Background(), TurnRequest{
		Message: "Cats are better than dogs",
	})
	var formatErr *ResponseFormatError
	require.ErrorAs(t, err, &formatErr)

	// the seed user message was persisted, nothing else
	require.NotNil(t, conversation)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, 0, store.botMessages(conversation.ID))
}

func TestFetchConversation(t *testing.T) {
	store := newFakeStore()
	seeded := models.NewConversation("Pets", "pro-dog")
	seeded.AddMessage(models.RoleUser, "Cats are better than dogs")
	_, err := store.Create(context.Background(), seeded)
	require.NoError(t, err)

	service := testService(t, store, &fakeCompleter{})

	conversation, err := service.FetchConversation(context.Background(), seeded.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Pets", conversation.Topic)
	assert.Equal(t, "pro-dog", conversation.Viewpoint)
	require.Len(t, conversation.Messages, 1)

	_, err = service.FetchConversation(context.Background(), primitive.NewObjectID().Hex())
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	_, err = service.FetchConversation(context.Background(), "bogus")
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
