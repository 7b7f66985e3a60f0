package catalog

import "errors"

// Product is a catalog entry as seen by the ordering core.
type Product struct {
	ProductID    string  `json:"product_id" dynamodbav:"product_id"` // PK
	RestaurantID string  `json:"restaurant_id" dynamodbav:"restaurant_id"`
	Name         string  `json:"name" dynamodbav:"name"`
	Description  string  `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Category     string  `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Price        float64 `json:"price" dynamodbav:"price"`
	Active       bool    `json:"active" dynamodbav:"active"`
}

var (
	// ErrNotFound is returned when a canonical id does not exist for the restaurant.
	ErrNotFound = errors.New("product not found")
	// ErrUnresolved is returned when no resolution strategy matched a free-text reference.
	ErrUnresolved = errors.New("product reference unresolved")
)
