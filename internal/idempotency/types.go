package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record is the shape persisted in the idempotency table. A record exists while a commit
// holds the key (IN_PROGRESS) and after it succeeded (DONE); failed commits delete it.
// An IN_PROGRESS claim older than the store's lease may be claimed again.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	Status         string    `dynamodbav:"status"`
	ConversationID string    `dynamodbav:"conversation_id,omitempty"`
	ClaimedAt      int64     `dynamodbav:"claimed_at"` // epoch milliseconds
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	OrderNumber    string    `dynamodbav:"order_number,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
