package enums

import "fmt"

// CheckoutStage is the step a checkout session is on.
type CheckoutStage string

const (
	CheckoutStageDelivery     CheckoutStage = "delivery"
	CheckoutStagePayment      CheckoutStage = "payment"
	CheckoutStageConfirmation CheckoutStage = "confirmation"
)

var validCheckoutStages = []CheckoutStage{
	CheckoutStageDelivery,
	CheckoutStagePayment,
	CheckoutStageConfirmation,
}

// String implements fmt.Stringer.
func (v CheckoutStage) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CheckoutStage.
func (v CheckoutStage) IsValid() bool {
	for _, candidate := range validCheckoutStages {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCheckoutStage converts raw input into a CheckoutStage.
func ParseCheckoutStage(value string) (CheckoutStage, error) {
	for _, candidate := range validCheckoutStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout stage %q", value)
}

// Terminal reports whether no further transitions are possible.
func (v CheckoutStage) Terminal() bool {
	return v == CheckoutStageConfirmation
}
