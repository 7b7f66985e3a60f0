package customers

import "time"

// DefaultName is given to customers created from a conversation without a name.
const DefaultName = "Cliente"

// Customer is keyed by id and looked up by (restaurant_id, phone).
type Customer struct {
	CustomerID   string    `json:"customer_id" dynamodbav:"customer_id"` // PK
	RestaurantID string    `json:"restaurant_id" dynamodbav:"restaurant_id"`
	Phone        string    `json:"phone" dynamodbav:"phone"` // digits only
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Address is the structured form of a free-text address.
type Address struct {
	AddressID    string    `json:"address_id" dynamodbav:"address_id"` // PK
	CustomerID   string    `json:"customer_id" dynamodbav:"customer_id"`
	Street       string    `json:"street" dynamodbav:"street"`
	Number       string    `json:"number" dynamodbav:"number"`
	Neighborhood string    `json:"neighborhood" dynamodbav:"neighborhood"`
	City         string    `json:"city" dynamodbav:"city"`
	Complement   string    `json:"complement,omitempty" dynamodbav:"complement,omitempty"`
	IsDefault    bool      `json:"is_default" dynamodbav:"is_default"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}
