package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/pagination"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 500000

	pocketFriendlyMaxPrice = 20000
	pocketFriendlyLimit    = 10
	dealsLimit             = 30
)

// Filters is the product listing state the storefront UI drives.
type Filters struct {
	Page     int
	Limit    int
	Category string
	Brand    string
	MinPrice int
	MaxPrice int
	Search   string
	Sort     enums.ProductSort
}

func DefaultFilters() Filters {
	return Filters{
		Page:     1,
		Limit:    pagination.DefaultLimit,
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Sort:     enums.ProductSortRandom,
	}
}

// Normalize clamps paging, fills defaults and checks the price range and sort.
func (f Filters) Normalize() (Filters, error) {
	p := pagination.Params{Page: f.Page, Limit: f.Limit}.Normalize()
	f.Page, f.Limit = p.Page, p.Limit
	f.Category = strings.TrimSpace(f.Category)
	f.Brand = strings.TrimSpace(f.Brand)
	f.Search = strings.TrimSpace(f.Search)
	if f.Sort == "" {
		f.Sort = enums.ProductSortRandom
	}
	if !f.Sort.IsValid() {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort").WithDetails(map[string]any{"sort": f.Sort})
	}
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "price range must not be negative")
	}
	if f.MaxPrice == 0 {
		f.MaxPrice = DefaultMaxPrice
	}
	if f.MinPrice > f.MaxPrice {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice").
			WithDetails(map[string]any{"minPrice": f.MinPrice, "maxPrice": f.MaxPrice})
	}
	return f, nil
}

// Values renders the remote /products query. Empty text filters are omitted.
func (f Filters) Values() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("minPrice", strconv.Itoa(f.MinPrice))
	q.Set("maxPrice", strconv.Itoa(f.MaxPrice))
	q.Set("sort", f.Sort.String())
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// Preset is a canned product query used by the home page sections.
type Preset string

const (
	PresetFeatured       Preset = "featured"
	PresetPocketFriendly Preset = "pocket-friendly"
	PresetDeals          Preset = "deals"
)

// PresetValues returns the query for p. limit overrides the preset default when positive.
func PresetValues(p Preset, limit int) (url.Values, error) {
	q := url.Values{}
	switch p {
	case PresetFeatured:
		q.Set("featured", "true")
		if limit > 0 {
			q.Set("limit", strconv.Itoa(pagination.NormalizeLimit(limit)))
		}
	case PresetPocketFriendly:
		if limit <= 0 {
			limit = pocketFriendlyLimit
		}
		q.Set("maxPrice", strconv.Itoa(pocketFriendlyMaxPrice))
		q.Set("limit", strconv.Itoa(pagination.NormalizeLimit(limit)))
		q.Set("sort", enums.ProductSortPriceAsc.String())
	case PresetDeals:
		if limit <= 0 {
			limit = dealsLimit
		}
		q.Set("isOnSale", "true")
		q.Set("limit", strconv.Itoa(pagination.NormalizeLimit(limit)))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown product collection")
	}
	return q, nil
}
