package orders

import (
	"time"

	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// StatusNew is the status of every order created from a conversation.
const StatusNew = "new"

// Order represents the item stored in the orders table.
type Order struct {
	OrderID         string    `json:"order_id" dynamodbav:"order_id"` // PK
	RestaurantID    string    `json:"restaurant_id" dynamodbav:"restaurant_id"`
	CustomerID      string    `json:"customer_id,omitempty" dynamodbav:"customer_id,omitempty"`
	ConversationID  string    `json:"conversation_id,omitempty" dynamodbav:"conversation_id,omitempty"`
	Status          string    `json:"status" dynamodbav:"status"`
	TotalAmount     float64   `json:"total_amount" dynamodbav:"total_amount"`
	DeliveryFee     float64   `json:"delivery_fee" dynamodbav:"delivery_fee"`
	DeliveryType    string    `json:"delivery_type" dynamodbav:"delivery_type"`
	DeliveryAddress string    `json:"delivery_address,omitempty" dynamodbav:"delivery_address,omitempty"`
	PaymentMethod   string    `json:"payment_method" dynamodbav:"payment_method"`
	Notes           string    `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	IdempotencyKey  string    `json:"idempotency_key,omitempty" dynamodbav:"idempotency_key,omitempty"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
	CreatedAtMs     int64     `json:"-" dynamodbav:"created_at_ms"` // GSI range key
}

// Item is one order line. ProductID is always canonical; OptionsSelected is a snapshot of
// the draft options, not a reference into the catalog.
type Item struct {
	OrderItemID     string         `json:"order_item_id" dynamodbav:"order_item_id"` // PK
	OrderID         string         `json:"order_id" dynamodbav:"order_id"`
	ProductID       string         `json:"product_id" dynamodbav:"product_id"`
	ProductName     string         `json:"product_name,omitempty" dynamodbav:"product_name,omitempty"`
	Quantity        int            `json:"quantity" dynamodbav:"quantity"`
	UnitPrice       float64        `json:"unit_price" dynamodbav:"unit_price"`
	TotalPrice      float64        `json:"total_price" dynamodbav:"total_price"`
	OptionsSelected []draft.Option `json:"options_selected,omitempty" dynamodbav:"options_selected,omitempty"`
}
