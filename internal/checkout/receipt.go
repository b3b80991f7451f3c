package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/pricing"
	"github.com/snaapconnections/storefront/pkg/enums"
)

const (
	whatsAppFollowUp = "We've sent you a WhatsApp message to confirm your order details and payment."
	mpesaFollowUp    = "You'll receive an M-Pesa payment request shortly. Please complete the payment to confirm your order."
	codFollowUp      = "Your order will be prepared for delivery. Our delivery agent will contact you when they're on the way."
)

// FollowUp tells the shopper what happens after the order is placed.
type FollowUp struct {
	Kind        enums.PaymentMethod `json:"kind"`
	Message     string              `json:"message"`
	WhatsAppURL string              `json:"whatsappUrl,omitempty"`
}

// Receipt is the confirmation produced by a successful submission.
type Receipt struct {
	Reference      string               `json:"reference"`
	OrderID        string               `json:"orderId,omitempty"`
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod"`
	Items          []cart.Item          `json:"items"`
	Totals         pricing.Totals       `json:"totals"`
	Formatted      pricing.Formatted    `json:"formatted"`
	FollowUp       FollowUp             `json:"followUp"`
	PlacedAt       time.Time            `json:"placedAt"`
}

// NewReference returns an order reference like ORD-1A2B3C4D.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}

func followUpFor(method enums.PaymentMethod, whatsAppNumber string, items []cart.Item, totals pricing.Totals, reference string) FollowUp {
	switch method {
	case enums.PaymentMethodMpesa:
		return FollowUp{Kind: method, Message: mpesaFollowUp}
	case enums.PaymentMethodCOD:
		return FollowUp{Kind: method, Message: codFollowUp}
	default:
		return FollowUp{
			Kind:        enums.PaymentMethodWhatsApp,
			Message:     whatsAppFollowUp,
			WhatsAppURL: WhatsAppLink(whatsAppNumber, OrderSummary(items, totals.Total, reference)),
		}
	}
}
