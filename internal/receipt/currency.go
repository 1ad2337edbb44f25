package receipt

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah renders an amount the single way the whole dashboard does: "Rp"
// prefix, Indonesian digit grouping, no fraction digits. 13000 -> "Rp13.000".
// Screen totals and printed totals go through this one formatter so they are
// character-identical.
func Rupiah(amount int64) string {
	return "Rp" + idPrinter.Sprintf("%d", amount)
}

// groupedAmount renders just the grouped digits, used in the thermal price
// column where the Rp prefix would not fit.
func groupedAmount(amount int64) string {
	return idPrinter.Sprintf("%d", amount)
}
