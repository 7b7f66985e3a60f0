package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/dispatch"
	"github.com/alebbueno/pedidos-saas-sub000/internal/validation"
)

// ConversationStore is the part of the conversations store the routes need.
type ConversationStore interface {
	Get(ctx context.Context, conversationID string) (*conversations.Conversation, error)
	FindOrStart(ctx context.Context, restaurantID, phone string) (*conversations.Conversation, bool, error)
}

// ToolDispatcher runs one tool call.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, cc dispatch.ConversationContext, call dispatch.ToolCall) (any, dispatch.ConversationContext, error)
}

// HandlerConfig groups dependencies for the conversation routes.
type HandlerConfig struct {
	Conversations ConversationStore
	Dispatcher    ToolDispatcher
	Logger        *zap.Logger
}

// RegisterConversationRoutes registers the conversation and tool-call routes.
func RegisterConversationRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	logger := cfg.Logger.Named("http")

	r.POST("/restaurants/:restaurant_id/conversations", func(c *gin.Context) {
		var req validation.StartConversationRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		conv, created, err := cfg.Conversations.FindOrStart(c.Request.Context(), c.Param("restaurant_id"), req.Phone)
		if err != nil {
			logger.Error("find or start conversation failed", zap.String("restaurant_id", c.Param("restaurant_id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable"})
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
			c.Header("Location", "/conversations/"+conv.ConversationID)
		}
		c.JSON(status, dispatch.FromConversation(conv))
	})

	r.GET("/conversations/:conversation_id", func(c *gin.Context) {
		conv, ok := loadConversation(c, cfg.Conversations, logger)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, dispatch.FromConversation(conv))
	})

	r.POST("/conversations/:conversation_id/tools", func(c *gin.Context) {
		var req validation.ToolCallRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		conv, ok := loadConversation(c, cfg.Conversations, logger)
		if !ok {
			return
		}

		result, cc, err := cfg.Dispatcher.Dispatch(c.Request.Context(), dispatch.FromConversation(conv), dispatch.ToolCall{
			Name:           req.Name,
			Arguments:      req.Arguments,
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
		})
		if err != nil {
			if errors.Is(err, dispatch.ErrUnknownTool) || errors.Is(err, dispatch.ErrInvalidArguments) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tool_call", "msg": err.Error()})
				return
			}
			logger.Error("dispatch failed", zap.String("conversation_id", conv.ConversationID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": result, "conversation": cc})
	})
}

func loadConversation(c *gin.Context, store ConversationStore, logger *zap.Logger) (*conversations.Conversation, bool) {
	id := c.Param("conversation_id")
	conv, err := store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, conversations.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation_not_found"})
			return nil, false
		}
		logger.Error("get conversation failed", zap.String("conversation_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_unavailable"})
		return nil, false
	}
	return conv, true
}
