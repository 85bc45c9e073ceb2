package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ignatius/models"
	"ignatius/services"
)

// ConversationController translates HTTP requests into conversation-service
// calls and typed failures into status codes.
type ConversationController struct {
	service *services.ConversationService
}

func NewConversationController(service *services.ConversationService) *ConversationController {
	return &ConversationController{service: service}
}

type turnRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
	Topic          string `json:"topic"`
	Viewpoint      string `json:"viewpoint"`
	Style          string `json:"style"`
}

type messageView struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type turnResponse struct {
	ConversationID string        `json:"conversation_id"`
	Topic          string        `json:"topic"`
	Messages       []messageView `json:"messages"`
}

type fullMessageView struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type conversationView struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Viewpoint string            `json:"viewpoint"`
	Messages  []fullMessageView `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// HandleTurn creates a new conversation or continues an existing one.
// POST /api/v1/conversations
func (ctrl *ConversationController) HandleTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required and cannot be empty"})
		return
	}

	conversation, err := ctrl.service.HandleTurn(c.Request.Context(), services.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Topic:          req.Topic,
		Viewpoint:      req.Viewpoint,
		Style:          req.Style,
	})
	if err != nil {
		writeServiceError(c, err, conversation)
		return
	}

	messages := make([]messageView, 0, len(conversation.Messages))
	for _, msg := range conversation.Messages {
		messages = append(messages, messageView{Role: string(msg.Role), Text: msg.Text})
	}
	c.JSON(http.StatusOK, turnResponse{
		ConversationID: conversation.ID.Hex(),
		Topic:          conversation.Topic,
		Messages:       messages,
	})
}

// GetConversation returns the full conversation representation.
// GET /api/v1/conversations/:id
func (ctrl *ConversationController) GetConversation(c *gin.Context) {
	conversation, err := ctrl.service.FetchConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, nil)
		return
	}

	messages := make([]fullMessageView, 0, len(conversation.Messages))
	for _, msg := range conversation.Messages {
		messages = append(messages, fullMessageView{
			Role:      string(msg.Role),
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		})
	}
	c.JSON(http.StatusOK, conversationView{
		ID:        conversation.ID.Hex(),
		Topic:     conversation.Topic,
		Viewpoint: conversation.Viewpoint,
		Messages:  messages,
		CreatedAt: conversation.CreatedAt,
		UpdatedAt: conversation.UpdatedAt,
	})
}

// writeServiceError maps the service error taxonomy to HTTP responses. When
// the turn already persisted the user message, the conversation id is
// included so the caller can retry without re-submitting the turn.
func writeServiceError(c *gin.Context, err error, conversation *models.Conversation) {
	body := gin.H{}
	if conversation != nil && !conversation.ID.IsZero() {
		body["conversation_id"] = conversation.ID.Hex()
	}

	var validationErr *models.ValidationError
	var notFoundErr *services.NotFoundError
	var generationErr *services.GenerationError
	var formatErr *services.ResponseFormatError
	var templateErr *services.TemplateError

	switch {
	case errors.As(err, &validationErr):
		body["error"] = validationErr.Error()
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notFoundErr):
		body["error"] = notFoundErr.Error()
		c.JSON(http.StatusNotFound, body)
	case errors.As(err, &generationErr):
		log.Printf("generation error: %v", err)
		body["error"] = "AI service temporarily unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
	case errors.As(err, &formatErr):
		log.Printf("response format error: %v", err)
		body["error"] = "Invalid AI response format"
		c.JSON(http.StatusInternalServerError, body)
	case errors.As(err, &templateErr):
		log.Printf("template error: %v", err)
		body["error"] = "Failed to generate response"
		c.JSON(http.StatusInternalServerError, body)
	default:
		log.Printf("unexpected error: %v", err)
		body["error"] = "Internal server error"
		c.JSON(http.StatusInternalServerError, body)
	}
}
