package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/pkg/money"
)

const whatsAppBase = "https://wa.me/"

// OrderSummary renders the prefilled WhatsApp text for items and total.
// reference is optional.
func OrderSummary(items []cart.Item, total decimal.Decimal, reference string) string {
	var b strings.Builder
	b.WriteString("I want to order:\n")
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s x%d - %s", it.Name, it.Quantity, money.Format(it.LineTotal()))
	}
	b.WriteString("\n\nTotal: ")
	b.WriteString(money.Format(total))
	if reference != "" {
		b.WriteString("\nOrder ID: ")
		b.WriteString(reference)
	}
	return b.String()
}

// WhatsAppLink builds a wa.me deep link with text percent-encoded.
func WhatsAppLink(number, text string) string {
	number = digitsOnly(number)
	return whatsAppBase + number + "?text=" + encodeURIComponent(text)
}

// encodeURIComponent escapes like the browser function of the same name:
// spaces become %20, not "+".
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
