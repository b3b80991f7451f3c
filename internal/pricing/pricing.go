// Package pricing computes order totals from cart lines.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/snaapconnections/storefront/pkg/enums"
	"github.com/snaapconnections/storefront/pkg/money"
)

var (
	defaultFreeShippingAbove = decimal.NewFromInt(10000)
	defaultFlatShipping      = decimal.NewFromInt(500)
)

// Policy holds the shipping rule. Delivery is free when the subtotal is
// strictly greater than FreeShippingAbove, otherwise FlatShipping is charged.
// Pickup is always free.
type Policy struct {
	FreeShippingAbove decimal.Decimal
	FlatShipping      decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		FreeShippingAbove: defaultFreeShippingAbove,
		FlatShipping:      defaultFlatShipping,
	}
}

// Line is the priced quantity of one cart entry.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Total is price times quantity rounded to cents.
func (l Line) Total() decimal.Decimal {
	return money.Round2(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
}

// Formatted is the display rendering of Totals.
type Formatted struct {
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shippingFee"`
	Total       string `json:"total"`
}

func (t Totals) Format() Formatted {
	return Formatted{
		Subtotal:    money.Format(t.Subtotal),
		ShippingFee: money.Format(t.ShippingFee),
		Total:       money.Format(t.Total),
	}
}

// Subtotal sums every line total.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return money.Round2(sum)
}

// ShippingFee applies the policy to a subtotal.
func (p Policy) ShippingFee(subtotal decimal.Decimal, method enums.DeliveryMethod) decimal.Decimal {
	if method == enums.DeliveryMethodPickup {
		return decimal.Zero
	}
	if subtotal.GreaterThan(p.FreeShippingAbove) {
		return decimal.Zero
	}
	return money.Round2(p.FlatShipping)
}

func (p Policy) Compute(lines []Line, method enums.DeliveryMethod) Totals {
	subtotal := Subtotal(lines)
	fee := p.ShippingFee(subtotal, method)
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return Totals{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       subtotal.Add(fee),
		ItemCount:   count,
	}
}

// Compute prices lines with the default policy.
func Compute(lines []Line, method enums.DeliveryMethod) Totals {
	return DefaultPolicy().Compute(lines, method)
}
