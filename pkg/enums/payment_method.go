package enums

import "fmt"

// PaymentMethod describes how a shopper intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodWhatsApp PaymentMethod = "whatsapp"
	PaymentMethodMpesa    PaymentMethod = "mpesa"
	PaymentMethodCOD      PaymentMethod = "cod"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWhatsApp,
	PaymentMethodMpesa,
	PaymentMethodCOD,
}

// String implements fmt.Stringer.
func (v PaymentMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentMethod.
func (v PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// AllowedWith reports whether the payment method can settle an order fulfilled via d.
// Cash on delivery needs a delivery.
func (v PaymentMethod) AllowedWith(d DeliveryMethod) bool {
	if v == PaymentMethodCOD {
		return d == DeliveryMethodDelivery
	}
	return v.IsValid()
}
