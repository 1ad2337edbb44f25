package receipt

import (
	"strconv"
	"strings"

	"pos-service/internal/models"
	"pos-service/internal/util"
)

// StoreInfo is the shop identity printed in receipt headers.
type StoreInfo struct {
	Name    string
	Address string
	Phone   string
}

var (
	thermalRule   = strings.Repeat("=", ThermalWidth)
	thermalDashes = strings.Repeat("-", ThermalWidth)
)

// Thermal renders a transaction as 32-column plain text for 58 mm paper.
// It is a pure function of its inputs: no clock reads, no I/O, so the same
// transaction always yields byte-identical output.
func Thermal(tx *models.Transaction, store StoreInfo) string {
	util.ReceiptsRenderedTotal.WithLabelValues("thermal").Inc()

	lines := []string{
		Center(store.Name),
		Center(store.Address),
		thermalRule,
		Pad("No: " + tx.InvoiceNumber),
		Pad("Tgl: " + tx.CreatedAt.Format("02/01/06 15:04")),
	}
	if tx.Cashier != nil && tx.Cashier.Name != "" {
		lines = append(lines, Pad("Kasir: "+truncate(tx.Cashier.Name, 24)))
	}

	lines = append(lines,
		thermalRule,
		Pad("ITEM           QTY      HARGA"),
		thermalDashes,
	)

	for i := range tx.Items {
		l1, l2 := thermalItem(&tx.Items[i])
		lines = append(lines, l1, l2)
	}

	lines = append(lines,
		thermalRule,
		SplitLine("TOTAL", Rupiah(tx.TotalAmount)),
		SplitLine(paymentLabel(tx.PaymentMethod), Rupiah(tx.PaymentAmount)),
	)
	if tx.ChangeAmount > 0 {
		lines = append(lines, SplitLine("KEMBALI", Rupiah(tx.ChangeAmount)))
	}

	lines = append(lines,
		thermalRule,
		Center("Terima kasih atas kunjungan Anda"),
		Center(tx.CreatedAt.Format("02/01/2006 15:04")),
	)

	return strings.Join(lines, "\n") + "\n"
}

// thermalItem lays an item out on two lines: name, quantity, and unit price
// aligned in fixed columns, then the subtotal at reduced emphasis. Two lines
// per item trade density for alignment; a single all-columns line is
// unreadable at 32 columns.
func thermalItem(item *models.TransactionItem) (string, string) {
	name := padTo(item.ProductName, 14)
	qty := rightAlign(strconv.Itoa(item.Quantity)+"x", 3)
	price := rightAlign(truncate(groupedAmount(item.Price), 10), 10)

	line1 := Pad(name + " " + qty + " " + price)
	line2 := Pad("  Sub: " + rightAlign(Rupiah(item.Subtotal), 24))
	return line1, line2
}

func paymentLabel(method string) string {
	if method == models.PaymentMethodTransfer {
		return "TRANSFER"
	}
	return "TUNAI"
}
