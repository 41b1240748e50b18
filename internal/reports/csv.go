package reports

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sakashimaa/etech-storefront/internal/domain"
)

const csvTimeLayout = "2006-01-02 15:04"

var csvHeader = []string{
	"Date",
	"Order ID",
	"Customer",
	"Status",
	"Payment",
	"Items",
	"Subtotal",
	"VAT",
	"Shipping",
	"Total",
}

// WriteCSV writes a header and one row per order, every cell quoted.
func WriteCSV(w io.Writer, orders []domain.AdminOrder, loc *time.Location) error {
	bw := bufio.NewWriter(w)

	if err := writeRow(bw, csvHeader); err != nil {
		return err
	}

	for _, o := range orders {
		id := o.OrderNumber
		if id == "" {
			id = o.ID
		}

		items := 0
		for _, item := range o.Items {
			items += item.Quantity
		}

		row := []string{
			o.CreatedAt.In(loc).Format(csvTimeLayout),
			id,
			customerName(o),
			string(o.Status),
			o.Payment.Label(),
			strconv.Itoa(items),
			strconv.FormatInt(o.Subtotal, 10),
			strconv.FormatInt(o.VAT, 10),
			strconv.FormatInt(o.Shipping, 10),
			strconv.FormatInt(o.GrandTotal, 10),
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRow(w *bufio.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(cell)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func customerName(o domain.AdminOrder) string {
	if o.Customer.Name != "" {
		return o.Customer.Name
	}
	if name := o.Address.FullName(); name != "" {
		return name
	}
	return o.Customer.Email
}
