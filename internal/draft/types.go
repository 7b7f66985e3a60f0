// Package draft holds the in-progress order carried by a conversation and the
// commit-readiness rules applied to it.
package draft

// Delivery modes
const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

// Payment methods
const (
	PaymentCash    = "cash"
	PaymentCredit  = "credit"
	PaymentDebit   = "debit"
	PaymentPix     = "pix"
	PaymentVoucher = "voucher"
)

// Option is a free-form annotation on an item. It has no link to catalog option tables.
type Option struct {
	GroupName  string  `json:"group_name" dynamodbav:"group_name"`
	OptionName string  `json:"option_name" dynamodbav:"option_name"`
	Price      float64 `json:"price" dynamodbav:"price"`
}

// Item is one line of a draft. ProductID may hold a human-readable reference until it is
// resolved to a canonical id. UnitPrice is authoritative and never recomputed.
type Item struct {
	ProductID   string   `json:"product_id" dynamodbav:"product_id" validate:"required"`
	ProductName string   `json:"product_name,omitempty" dynamodbav:"product_name,omitempty"`
	Quantity    int      `json:"quantity" dynamodbav:"quantity" validate:"min=1"`
	UnitPrice   float64  `json:"unit_price" dynamodbav:"unit_price" validate:"gte=0"`
	Options     []Option `json:"options,omitempty" dynamodbav:"options,omitempty" validate:"dive"`
}

// Draft is replaced wholesale on every update; it is never merged.
type Draft struct {
	Items           []Item   `json:"items" dynamodbav:"items" validate:"dive"`
	DeliveryType    string   `json:"delivery_type,omitempty" dynamodbav:"delivery_type,omitempty" validate:"omitempty,oneof=delivery pickup"`
	DeliveryAddress string   `json:"delivery_address,omitempty" dynamodbav:"delivery_address,omitempty"`
	PaymentMethod   string   `json:"payment_method,omitempty" dynamodbav:"payment_method,omitempty" validate:"omitempty,oneof=cash credit debit pix voucher"`
	CustomerName    string   `json:"customer_name,omitempty" dynamodbav:"customer_name,omitempty"`
	CustomerEmail   string   `json:"customer_email,omitempty" dynamodbav:"customer_email,omitempty" validate:"omitempty,email"`
	DeliveryFee     *float64 `json:"delivery_fee,omitempty" dynamodbav:"delivery_fee,omitempty" validate:"omitempty,gte=0"`
	Notes           string   `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
}

// IsDelivery reports whether the draft asks for delivery.
func (d *Draft) IsDelivery() bool {
	return d != nil && d.DeliveryType == DeliveryTypeDelivery
}

// Subtotal is the sum of unit_price x quantity over the items.
func (d *Draft) Subtotal() float64 {
	if d == nil {
		return 0
	}
	var sum float64
	for _, it := range d.Items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	return sum
}
