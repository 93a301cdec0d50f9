package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultMaxPrice is the upper bound of the shop's price slider.
var DefaultMaxPrice = decimal.NewFromInt(500)

type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

// Filter selects products. Empty fields match everything; a nil MaxPrice
// means DefaultMaxPrice.
type Filter struct {
	Kind     Kind
	Category string
	Types    []string
	MaxPrice *decimal.Decimal
}

func (f Filter) maxPrice() decimal.Decimal {
	if f.MaxPrice == nil {
		return DefaultMaxPrice
	}
	return *f.MaxPrice
}

func (f Filter) Match(p Product) bool {
	if f.Kind != "" && p.Kind != f.Kind {
		return false
	}
	if f.Category != "" && f.Category != "all" && p.Category != f.Category {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, p.Type) {
		return false
	}
	return !p.Price.GreaterThan(f.maxPrice())
}

// Sort orders products in place. Names compare with Brazilian Portuguese
// collation; an unknown key keeps the current order.
func Sort(products []Product, key SortKey) {
	switch key {
	case SortName:
		col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		slices.SortStableFunc(products, func(a, b Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b Product) int {
			return b.Price.Cmp(a.Price)
		})
	}
}

// ParseSortKey maps a query value to a key, defaulting to SortName.
func ParseSortKey(v string) SortKey {
	switch SortKey(strings.TrimSpace(v)) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	default:
		return SortName
	}
}

// Query returns the matching products sorted by key.
func (c *Catalog) Query(f Filter, key SortKey) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	Sort(out, key)
	return out
}
