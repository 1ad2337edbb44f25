package receipt

import (
	"strconv"
	"strings"

	"pos-service/internal/models"
	"pos-service/internal/util"
)

// previewWidth is the column budget of the 80 mm on-screen preview.
const previewWidth = 48

var (
	previewRule   = strings.Repeat("=", previewWidth)
	previewDashes = strings.Repeat("-", previewWidth)
)

// Preview renders a transaction as 48-column plain text for the 80 mm
// invoice preview. Deterministic for the same input, like Thermal.
func Preview(tx *models.Transaction, store StoreInfo) string {
	util.ReceiptsRenderedTotal.WithLabelValues("preview").Inc()

	lines := []string{
		centerTo(store.Name, previewWidth),
	}
	if store.Address != "" {
		lines = append(lines, centerTo(store.Address, previewWidth))
	}
	if store.Phone != "" {
		lines = append(lines, centerTo("Telp: "+store.Phone, previewWidth))
	}

	cashier := "-"
	if tx.Cashier != nil && tx.Cashier.Name != "" {
		cashier = tx.Cashier.Name
	}

	lines = append(lines,
		previewRule,
		splitTo("Invoice:", tx.InvoiceNumber, previewWidth, 24),
		splitTo("Tanggal:", tx.CreatedAt.Format("02/01/2006 15:04"), previewWidth, 24),
		splitTo("Kasir:", cashier, previewWidth, 24),
		previewRule,
		previewColumns("Item", "Qty", "Harga", "Total"),
		previewDashes,
	)

	for i := range tx.Items {
		item := &tx.Items[i]
		lines = append(lines, previewColumns(
			item.ProductName,
			strconv.Itoa(item.Quantity),
			Rupiah(item.Price),
			Rupiah(item.Subtotal),
		))
		if item.ProductCode != "" {
			lines = append(lines, padTo("  "+item.ProductCode, previewWidth))
		}
	}

	payLabel := "Bayar (Tunai):"
	if tx.PaymentMethod == models.PaymentMethodTransfer {
		payLabel = "Bayar (Transfer):"
	}

	lines = append(lines,
		previewRule,
		splitTo("Subtotal:", Rupiah(tx.TotalAmount), previewWidth, 16),
		splitTo("TOTAL:", Rupiah(tx.TotalAmount), previewWidth, 16),
		previewDashes,
		splitTo(payLabel, Rupiah(tx.PaymentAmount), previewWidth, 16),
		splitTo("Kembali:", Rupiah(tx.ChangeAmount), previewWidth, 16),
		previewRule,
		centerTo("Terima kasih atas kunjungan Anda!", previewWidth),
		centerTo("Barang yang sudah dibeli tidak dapat ditukar", previewWidth),
	)

	if tx.Notes != "" {
		lines = append(lines, padTo("Note: "+tx.Notes, previewWidth))
	}

	return strings.Join(lines, "\n") + "\n"
}

// previewColumns lays out the four item columns: name 18, qty right 4,
// price right 12, subtotal right 14.
func previewColumns(name, qty, price, subtotal string) string {
	return padTo(name, 18) +
		rightAlign(truncate(qty, 4), 4) +
		rightAlign(truncate(price, 12), 12) +
		rightAlign(truncate(subtotal, 14), 14)
}
