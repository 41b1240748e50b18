package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	dayLayout    = "2006-01-02"
	unknownBrand = "Other"
)

type DaySales struct {
	Date   string `json:"date"`
	Total  int64  `json:"total"`
	Orders int    `json:"orders"`
}

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type ProductSales struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type BrandSales struct {
	Brand    string `json:"brand"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

type PaymentShare struct {
	Method  domain.PaymentMethod `json:"method"`
	Label   string               `json:"label"`
	Count   int                  `json:"count"`
	Percent int64                `json:"percent"`
}

// InRange keeps orders created on any calendar day from from to to, both inclusive,
// in from's location. A zero bound is open.
func InRange(orders []domain.AdminOrder, from, to time.Time) []domain.AdminOrder {
	loc := time.UTC
	switch {
	case !from.IsZero():
		loc = from.Location()
	case !to.IsZero():
		loc = to.Location()
	}

	var start, end time.Time
	if !from.IsZero() {
		start = startOfDay(from, loc)
	}
	if !to.IsZero() {
		end = startOfDay(to, loc).AddDate(0, 0, 1)
	}

	out := make([]domain.AdminOrder, 0, len(orders))
	for _, o := range orders {
		created := o.CreatedAt.In(loc)
		if !start.IsZero() && created.Before(start) {
			continue
		}
		if !end.IsZero() && !created.Before(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// SalesByDay sums grand totals per day, oldest first. Cancelled orders are not sales.
func SalesByDay(orders []domain.AdminOrder, loc *time.Location) []DaySales {
	byDay := make(map[string]*DaySales)
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		key := o.CreatedAt.In(loc).Format(dayLayout)
		day, ok := byDay[key]
		if !ok {
			day = &DaySales{Date: key}
			byDay[key] = day
		}
		day.Total += o.GrandTotal
		day.Orders++
	}

	out := make([]DaySales, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// OrdersPerDay counts every order regardless of status, oldest day first.
func OrdersPerDay(orders []domain.AdminOrder, loc *time.Location) []Count {
	return countBy(orders, func(o domain.AdminOrder) string {
		return o.CreatedAt.In(loc).Format(dayLayout)
	})
}

// OrdersPerWeek buckets by ISO week, labelled like 2026-W07.
func OrdersPerWeek(orders []domain.AdminOrder, loc *time.Location) []Count {
	return countBy(orders, func(o domain.AdminOrder) string {
		year, week := o.CreatedAt.In(loc).ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	})
}

func countBy(orders []domain.AdminOrder, key func(domain.AdminOrder) string) []Count {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[key(o)]++
	}

	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// TopProducts ranks products by units sold. limit <= 0 returns all.
func TopProducts(orders []domain.AdminOrder, limit int) []ProductSales {
	byID := make(map[string]*ProductSales)
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			p, ok := byID[item.Product.ID]
			if !ok {
				p = &ProductSales{ID: item.Product.ID, Name: item.Product.Name}
				byID[item.Product.ID] = p
			}
			p.Quantity += item.Quantity
			p.Revenue += lineTotal(item)
		}
	}

	out := make([]ProductSales, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ID < out[j].ID
	})
	return head(out, limit)
}

// TopBrands ranks brands by revenue. limit <= 0 returns all.
func TopBrands(orders []domain.AdminOrder, limit int) []BrandSales {
	byBrand := make(map[string]*BrandSales)
	for _, o := range orders {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			name := item.Product.Brand
			if name == "" {
				name = unknownBrand
			}
			b, ok := byBrand[name]
			if !ok {
				b = &BrandSales{Brand: name}
				byBrand[name] = b
			}
			b.Quantity += item.Quantity
			b.Revenue += lineTotal(item)
		}
	}

	out := make([]BrandSales, 0, len(byBrand))
	for _, b := range byBrand {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Brand < out[j].Brand
	})
	return head(out, limit)
}

// PaymentBreakdown counts orders per payment method with a percentage rounded half away from zero.
func PaymentBreakdown(orders []domain.AdminOrder) []PaymentShare {
	counts := make(map[domain.PaymentMethod]int)
	for _, o := range orders {
		counts[o.Payment]++
	}

	total := decimal.NewFromInt(int64(len(orders)))
	out := make([]PaymentShare, 0, len(counts))
	for method, n := range counts {
		share := PaymentShare{Method: method, Label: method.Label(), Count: n}
		if !total.IsZero() {
			share.Percent = decimal.NewFromInt(int64(n) * 100).Div(total).Round(0).IntPart()
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func lineTotal(item domain.AdminOrderItem) int64 {
	if item.TotalPrice != 0 {
		return item.TotalPrice
	}
	return item.Product.Price * int64(item.Quantity)
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
