package routes

import (
	"github.com/gin-gonic/gin"

	"ignatius/controllers"
)

// SetupConversationRoutes registers the conversation endpoints on the group.
func SetupConversationRoutes(router *gin.RouterGroup, ctrl *controllers.ConversationController) {
	conversations := router.Group("/conversations")
	{
		conversations.POST("", ctrl.HandleTurn)
		conversations.GET("/:id", ctrl.GetConversation)
	}
}
