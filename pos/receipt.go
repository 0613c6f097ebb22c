/*
receipt.go - Receipt numbers and plain-text receipt rendering

PURPOSE:
  Generates the human-scannable receipt number for each transaction and
  renders a printable plain-text receipt.

RECEIPT NUMBER FORMAT:
  YYYYMMDDHHMMSS + 3-digit zero-padded random suffix, e.g.
  20250314153059042. Collision-resistant enough for a single till; not
  globally unique across machines. The transaction's UUID is the real
  identity, the receipt number is for humans.

SEE ALSO:
  - engine.go: Calls GenerateReceiptNumber at checkout
*/
package pos

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GenerateReceiptNumber derives a receipt number from the given time
// plus a random 3-digit suffix.
func GenerateReceiptNumber(at time.Time) string {
	return at.Format("20060102150405") + fmt.Sprintf("%03d", rand.Intn(1000))
}

// FormatRupiah renders an amount as Indonesian Rupiah with dot
// thousands grouping, e.g. "Rp 14.000". Fractions are dropped; the till
// trades in whole Rupiah.
func FormatRupiah(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// RenderReceipt renders a printable receipt for a completed
// transaction. The store name comes from settings.
func RenderReceipt(tx Transaction, settings Settings) string {
	const width = 32
	var b strings.Builder

	center := func(s string) {
		if pad := (width - len(s)) / 2; pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}
	rule := func() { b.WriteString(strings.Repeat("-", width) + "\n") }

	center(settings.StoreName)
	rule()
	fmt.Fprintf(&b, "No. Struk : %s\n", tx.ReceiptNumber)
	fmt.Fprintf(&b, "Tanggal   : %s\n", tx.Timestamp.Format("02/01/2006 15:04"))
	if tx.BuyerName != "" {
		fmt.Fprintf(&b, "Pembeli   : %s\n", tx.BuyerName)
	}
	if tx.BuyerAddress != "" {
		fmt.Fprintf(&b, "Alamat    : %s\n", tx.BuyerAddress)
	}
	rule()
	for _, l := range tx.Lines {
		fmt.Fprintf(&b, "%s\n", l.Product.Name)
		fmt.Fprintf(&b, "  %d x %s = %s\n", l.Quantity, FormatRupiah(l.Product.Price), FormatRupiah(l.Subtotal()))
	}
	rule()
	fmt.Fprintf(&b, "Total     : %s\n", FormatRupiah(tx.Total))
	fmt.Fprintf(&b, "Tunai     : %s\n", FormatRupiah(tx.AmountPaid))
	fmt.Fprintf(&b, "Kembalian : %s\n", FormatRupiah(tx.Change))
	rule()
	center("Terima kasih!")

	return b.String()
}
