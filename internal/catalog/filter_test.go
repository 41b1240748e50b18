package catalog

import (
	"testing"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
)

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func TestFilter(t *testing.T) {
	products := sampleProducts()

	cases := []struct {
		name    string
		filters Filters
		query   string
		want    []string
	}{
		{"no constraints keeps order", Filters{}, "", []string{"p1", "p2", "p3"}},
		{"query is case insensitive substring", Filters{}, "  PHONE ", []string{"p1", "p3"}},
		{"category by id", Filters{Category: "c2"}, "", []string{"p2"}},
		{"brand by id", Filters{Brand: "b1"}, "", []string{"p1", "p3"}},
		{"inclusive bounds", Filters{Min: ptr(199), Max: ptr(990)}, "", []string{"p1", "p3"}},
		{"conjunction", Filters{Brand: "b1", Max: ptr(500)}, "phone", []string{"p3"}},
		{"sort low", Filters{Sort: SortPriceLo}, "", []string{"p3", "p1", "p2"}},
		{"sort high", Filters{Sort: SortPriceHi}, "", []string{"p2", "p1", "p3"}},
		{"sort best", Filters{Sort: SortBest}, "", []string{"p2", "p3", "p1"}},
		{"sort new is stable", Filters{Sort: SortNewest}, "", []string{"p2", "p3", "p1"}},
		{"nothing matches", Filters{Category: "missing"}, "", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(products, tc.filters, tc.query)))
		})
	}

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(products), "input must not be reordered")
}

func TestSortKey_Valid(t *testing.T) {
	assert.True(t, SortKey("best").Valid())
	assert.True(t, SortNone.Valid())
	assert.False(t, SortKey("cheap").Valid())
}
