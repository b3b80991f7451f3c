package checkout

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaapconnections/storefront/internal/cart"
)

func TestOrderSummary(t *testing.T) {
	items := []cart.Item{
		{ID: "1", Name: "Galaxy A15", Price: decimal.NewFromInt(6500), Quantity: 2},
		{ID: "2", Name: "Case", Price: decimal.NewFromInt(500), Quantity: 1},
	}
	got := OrderSummary(items, decimal.NewFromInt(13500), "")
	want := "I want to order:\nGalaxy A15 x2 - KES 13,000.00\nCase x1 - KES 500.00\n\nTotal: KES 13,500.00"
	assert.Equal(t, want, got)

	withRef := OrderSummary(items, decimal.NewFromInt(13500), "ORD-ABCDEF12")
	assert.True(t, strings.HasSuffix(withRef, "\nOrder ID: ORD-ABCDEF12"))
}

func TestWhatsAppLinkEncodesLikeBrowser(t *testing.T) {
	link := WhatsAppLink("+254 711 111 602", "I want to order:\nTab x1 (blue)!")
	assert.Equal(t, "https://wa.me/254711111602?text=I%20want%20to%20order%3A%0ATab%20x1%20(blue)!", link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "I want to order:\nTab x1 (blue)!", u.Query().Get("text"))
}
