package catalog

import (
	"sort"
	"strings"

	"github.com/sakashimaa/etech-storefront/internal/domain"
)

type SortKey string

const (
	SortNone    SortKey = ""
	SortNewest  SortKey = "new"
	SortPriceLo SortKey = "low"
	SortPriceHi SortKey = "high"
	SortBest    SortKey = "best"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortNewest, SortPriceLo, SortPriceHi, SortBest:
		return true
	}
	return false
}

// Filters narrows a product listing. Zero values mean "no constraint".
type Filters struct {
	Category string
	Brand    string
	Min      *int64
	Max      *int64
	Sort     SortKey
}

// Filter is pure: it never mutates products and returns a new slice.
func Filter(products []domain.Product, filters Filters, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		if filters.Category != "" && p.CategoryID != filters.Category {
			continue
		}
		if filters.Brand != "" && p.BrandID != filters.Brand {
			continue
		}
		if filters.Min != nil && p.Price < *filters.Min {
			continue
		}
		if filters.Max != nil && p.Price > *filters.Max {
			continue
		}
		out = append(out, p)
	}

	switch filters.Sort {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].IsNew && !out[j].IsNew })
	case SortPriceLo:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHi:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortBest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}

	return out
}
