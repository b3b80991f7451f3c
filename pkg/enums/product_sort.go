package enums

import "fmt"

// ProductSort orders catalog listings.
type ProductSort string

const (
	ProductSortRandom    ProductSort = "random"
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceLow  ProductSort = "price-low"
	ProductSortPriceHigh ProductSort = "price-high"
	ProductSortPopular   ProductSort = "popular"
	ProductSortPriceAsc  ProductSort = "price_asc"
)

var validProductSorts = []ProductSort{
	ProductSortRandom,
	ProductSortNewest,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortPopular,
	ProductSortPriceAsc,
}

// String implements fmt.Stringer.
func (v ProductSort) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductSort.
func (v ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
