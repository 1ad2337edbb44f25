package cart

import (
	"errors"

	"pos-service/internal/models"
	"pos-service/internal/util"
)

// ErrStockExhausted is returned when a product with no available stock is
// added. Quantity requests beyond stock on an existing line are clamped
// instead, matching the disabled-increment affordance in the UI.
var ErrStockExhausted = errors.New("stock exhausted")

// Line is one product's presence in the sale in progress. Product is a copy
// taken at add time, so catalog edits never retroactively change an open line.
type Line struct {
	ProductID int64          `json:"product_id"`
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
}

// Subtotal is derived on every read; it is never stored, so it cannot drift
// from the quantity and price that produce it.
func (l *Line) Subtotal() int64 {
	return int64(l.Quantity) * l.Product.Price
}

// Cart holds the sale in progress for one cashier session. Lines keep
// insertion order so receipts render items in the order they were scanned.
// Mutations are not goroutine safe; the owning Session serializes them.
type Cart struct {
	lines []*Line
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID int64) *Line {
	for _, l := range c.lines {
		if l.ProductID == productID {
			return l
		}
	}
	return nil
}

// AddItem adds quantity units of product. A line already holding the product
// is incremented instead of duplicated. The resulting quantity is clamped to
// [1, stock]; adding a product with zero stock is rejected.
func (c *Cart) AddItem(product models.Product, quantity int) error {
	if product.Stock <= 0 {
		return ErrStockExhausted
	}
	if quantity < 1 {
		quantity = 1
	}

	util.CartItemsAddedTotal.Inc()

	if line := c.find(product.ID); line != nil {
		line.Quantity = clampQuantity(line.Quantity+quantity, line.Product.Stock)
		return nil
	}

	c.lines = append(c.lines, &Line{
		ProductID: product.ID,
		Product:   product,
		Quantity:  clampQuantity(quantity, product.Stock),
	})
	return nil
}

// UpdateQuantity sets the quantity for a line. Zero or negative removes the
// line. An unknown product id is a no-op: the UI only references lines it
// rendered, so a stale id is not an error worth surfacing.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if line := c.find(productID); line != nil {
		line.Quantity = clampQuantity(quantity, line.Product.Stock)
	}
}

// RemoveItem deletes the line for productID if present.
func (c *Cart) RemoveItem(productID int64) {
	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart. Called once, after the transaction service has
// confirmed the checkout, never speculatively.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns the lines in insertion order. The returned slice is a copy;
// mutating it does not affect the cart.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
	}
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// TotalAmount is the sum of line subtotals, recomputed on every call.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// TotalItemCount is the sum of line quantities, recomputed on every call.
func (c *Cart) TotalItemCount() int {
	var count int
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

func clampQuantity(quantity, stock int) int {
	if quantity > stock {
		util.CartStockClampsTotal.Inc()
		return stock
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}
