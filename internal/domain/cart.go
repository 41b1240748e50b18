package domain

type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (i CartItem) LineTotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}

func Subtotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// Snapshot deep-copies items so later cart or catalog changes cannot reach them.
func Snapshot(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = CartItem{
			ID:       item.ID,
			Product:  item.Product.Clone(),
			Quantity: item.Quantity,
		}
	}
	return out
}
