package cart

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snaapconnections/storefront/internal/pricing"
)

// MaxQuantity caps a single line. Merges saturate at this value.
const MaxQuantity = 999

// Item is one cart line.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

func (i Item) Line() pricing.Line {
	return pricing.Line{Price: i.Price, Quantity: i.Quantity}
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Line().Total()
}

// mergeQuantity adds b to a without exceeding MaxQuantity.
func mergeQuantity(a, b int) int {
	if b >= MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

// Lines projects items for pricing.
func Lines(items []Item) []pricing.Line {
	out := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		out = append(out, it.Line())
	}
	return out
}

// storedItem is the persisted shape. Prices are written as JSON numbers.
type storedItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image"`
}

// looseItem accepts whatever older writers left behind.
type looseItem struct {
	ID       json.RawMessage `json:"id"`
	Name     json.RawMessage `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
	Image    json.RawMessage `json:"image"`
}

func encode(items []Item) (string, error) {
	stored := make([]storedItem, 0, len(items))
	for _, it := range items {
		stored = append(stored, storedItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decode parses a persisted cart. A payload that is not a JSON array is an
// error; unusable lines inside a valid array are dropped and reported via
// dropped.
func decode(raw string) (items []Item, dropped int, err error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, 0, err
	}
	items = make([]Item, 0, len(elems))
	index := map[string]int{}
	for _, elem := range elems {
		it, ok := decodeItem(elem)
		if !ok {
			dropped++
			continue
		}
		if at, seen := index[it.ID]; seen {
			items[at].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	return items, dropped, nil
}

func decodeItem(elem json.RawMessage) (Item, bool) {
	var loose looseItem
	if err := json.Unmarshal(elem, &loose); err != nil {
		return Item{}, false
	}
	id := scalarString(loose.ID)
	if id == "" {
		return Item{}, false
	}
	price, ok := scalarDecimal(loose.Price)
	if !ok || price.IsNegative() {
		return Item{}, false
	}
	qty := 1
	if q, ok := scalarDecimal(loose.Quantity); ok && q.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		if q.GreaterThan(decimal.NewFromInt(MaxQuantity)) {
			qty = MaxQuantity
		} else {
			qty = int(q.IntPart())
		}
	}
	return Item{
		ID:       id,
		Name:     scalarString(loose.Name),
		Price:    price,
		Quantity: qty,
		Image:    scalarString(loose.Image),
	}, true
}

// scalarString reads a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

func scalarDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	s := scalarString(raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
