package dispatch

import (
	"encoding/json"

	"github.com/alebbueno/pedidos-saas-sub000/internal/catalog"
	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// Tool names
const (
	ToolListProducts     = "list_products"
	ToolCreateDraftOrder = "create_draft_order"
	ToolConfirmOrder     = "confirm_order"
)

// ConversationContext is the conversation state a dispatch reads and returns. It is never
// kept in process memory between calls.
type ConversationContext struct {
	ConversationID string       `json:"conversation_id"`
	RestaurantID   string       `json:"restaurant_id"`
	CustomerID     string       `json:"customer_id,omitempty"`
	Phone          string       `json:"phone"`
	Status         string       `json:"status"`
	Draft          *draft.Draft `json:"current_order_draft,omitempty"`
}

// FromConversation builds the context of a stored conversation.
func FromConversation(c *conversations.Conversation) ConversationContext {
	return ConversationContext{
		ConversationID: c.ConversationID,
		RestaurantID:   c.RestaurantID,
		CustomerID:     c.CustomerID,
		Phone:          c.Phone,
		Status:         c.Status,
		Draft:          c.CurrentOrderDraft,
	}
}

// ToolCall is one call emitted by the dialogue driver. IdempotencyKey comes from the
// transport and is used by confirm_order when the arguments carry none.
type ToolCall struct {
	Name           string          `json:"name"`
	Arguments      json.RawMessage `json:"arguments"`
	IdempotencyKey string          `json:"-"`
}

type ListProductsArgs struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

type ConfirmArgs struct {
	Confirmed      bool   `json:"confirmed"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type ListProductsResult struct {
	Products []catalog.Product `json:"products"`
	Error    string            `json:"error,omitempty"`
}

type DraftResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Draft   *draft.Draft `json:"draft,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type ConfirmResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Error       string `json:"error,omitempty"`
}
