package draft

import (
	"strings"

	"github.com/alebbueno/pedidos-saas-sub000/internal/address"
)

// Stable diagnostic codes shared with the dialogue driver.
const (
	CodeNoItems                 = "no_items"
	CodeMissingProductID        = "missing_product_id"
	CodePaymentMethodRequired   = "payment_method_required"
	CodeDeliveryTypeRequired    = "delivery_type_required"
	CodeDeliveryAddressRequired = "delivery_address_required"
	CodeIncompleteAddress       = "incomplete_address"
)

// minAddressParts is street, neighborhood and city.
const minAddressParts = 3

// Validate returns "" when d is ready to commit, otherwise the code of the first failing
// rule. Only one diagnostic is reported per call.
func Validate(d *Draft) string {
	if d == nil || len(d.Items) == 0 {
		return CodeNoItems
	}
	for _, it := range d.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return CodeMissingProductID
		}
	}
	if strings.TrimSpace(d.PaymentMethod) == "" {
		return CodePaymentMethodRequired
	}
	if strings.TrimSpace(d.DeliveryType) == "" {
		return CodeDeliveryTypeRequired
	}
	if d.IsDelivery() {
		if strings.TrimSpace(d.DeliveryAddress) == "" {
			return CodeDeliveryAddressRequired
		}
		if len(address.Parts(d.DeliveryAddress)) < minAddressParts {
			return CodeIncompleteAddress
		}
	}
	return ""
}
