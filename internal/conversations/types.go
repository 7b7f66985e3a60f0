package conversations

import (
	"errors"
	"time"

	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// Conversation statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// ErrNotFound is returned when a conversation id does not exist.
var ErrNotFound = errors.New("conversation not found")

// ErrNotActive is returned when a draft is written to a completed or abandoned conversation.
var ErrNotActive = errors.New("conversation is not active")

// Conversation is the item stored in the conversations table. Phone is kept raw, including
// any disambiguation suffix; it is normalized only for customer lookups.
type Conversation struct {
	ConversationID    string       `json:"conversation_id" dynamodbav:"conversation_id"` // PK
	RestaurantID      string       `json:"restaurant_id" dynamodbav:"restaurant_id"`
	CustomerID        string       `json:"customer_id,omitempty" dynamodbav:"customer_id,omitempty"`
	Phone             string       `json:"phone" dynamodbav:"phone"`
	Status            string       `json:"status" dynamodbav:"status"` // active | completed | abandoned
	CurrentOrderDraft *draft.Draft `json:"current_order_draft,omitempty" dynamodbav:"current_order_draft,omitempty"`
	StartedAt         time.Time    `json:"started_at" dynamodbav:"started_at"`
	LastActivityAt    time.Time    `json:"last_activity_at" dynamodbav:"last_activity_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
}
