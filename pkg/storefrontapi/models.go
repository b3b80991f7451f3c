package storefrontapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// NamedRef decodes either a bare string or a populated {"_id","name"} document.
type NamedRef struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}

func (n *NamedRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = NamedRef{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NamedRef{Name: s}
		return nil
	}
	type plain NamedRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*n = NamedRef(p)
	return nil
}

func (n NamedRef) String() string { return n.Name }

type Product struct {
	ID            string           `json:"_id"`
	Name          string           `json:"name"`
	Brand         NamedRef         `json:"brand"`
	Category      NamedRef         `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Description   string           `json:"description,omitempty"`
	Thumbnail     string           `json:"thumbnail,omitempty"`
	Images        []string         `json:"images,omitempty"`
	Rating        float64          `json:"rating,omitempty"`
	Stock         int              `json:"stock,omitempty"`
	Featured      bool             `json:"featured,omitempty"`
	IsOnSale      bool             `json:"isOnSale,omitempty"`
}

// Image returns the thumbnail or the first gallery image.
func (p Product) Image() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// EffectivePrice is the discounted price when one is set.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}

type ProductPage struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

type Category struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Image string `json:"image,omitempty"`
}

type Brand struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type Review struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	WhatsApp   string    `json:"whatsapp,omitempty"`
	Product    NamedRef  `json:"product"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
	IsApproved bool      `json:"isApproved"`
}

type ReviewInput struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type ReviewPage struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}

type Customer struct {
	ID         string          `json:"_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
	Orders     int             `json:"orders,omitempty"`
	IsActive   bool            `json:"isActive"`
}

type CustomerPage struct {
	Customers []Customer `json:"customers"`
	Count     int        `json:"count"`
}

type Order struct {
	ID             string          `json:"_id"`
	OrderNumber    string          `json:"orderNumber,omitempty"`
	Status         string          `json:"status"`
	DeliveryMethod string          `json:"deliveryMethod,omitempty"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Customer       json.RawMessage `json:"customer,omitempty"`
	Items          json.RawMessage `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

// OrderAddress is the contact and delivery block of an order submission.
type OrderAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type OrderLine struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image,omitempty"`
}

// OrderRequest is posted to /orders. Amounts are sent as JSON numbers.
type OrderRequest struct {
	Reference      string       `json:"reference"`
	DeliveryMethod string       `json:"deliveryMethod"`
	Address        OrderAddress `json:"address"`
	PaymentMethod  string       `json:"paymentMethod"`
	Items          []OrderLine  `json:"items"`
	Subtotal       json.Number  `json:"subtotal"`
	ShippingFee    json.Number  `json:"shippingFee"`
	Total          json.Number  `json:"total"`
}

// OrderAck is the remote acknowledgement of a created order.
type OrderAck struct {
	ID          string `json:"_id,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Amount renders d as a JSON number with two decimals.
func Amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
