package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrSchemaMismatch indicates a collaborator response that does not satisfy
// the typed contract. Detected at the service boundary, never propagated as
// a zero-valued struct into cart or checkout logic.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Payment methods
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

// Product is a catalog snapshot as served by the Catalog Service.
type Product struct {
	ID    int64  `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Name  string `db:"name" json:"name"`
	Price int64  `db:"price" json:"price"`
	Stock int    `db:"stock" json:"stock"`
	Unit  string `db:"unit" json:"unit"`
}

// Validate checks the fields the cart and receipt depend on.
func (p *Product) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("%w: product missing id", ErrSchemaMismatch)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product %d missing name", ErrSchemaMismatch, p.ID)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: product %d has negative price", ErrSchemaMismatch, p.ID)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product %d has negative stock", ErrSchemaMismatch, p.ID)
	}
	return nil
}

// Cashier identifies the operator attached to a session and a transaction.
type Cashier struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Transaction is the authoritative record of a completed sale, owned by the
// Transaction Service. This service only reads it.
type Transaction struct {
	ID            int64             `db:"id" json:"id"`
	InvoiceNumber string            `db:"invoice_number" json:"invoice_number"`
	TotalAmount   int64             `db:"total_amount" json:"total_amount"`
	PaymentMethod string            `db:"payment_method" json:"payment_method"`
	PaymentAmount int64             `db:"payment_amount" json:"payment_amount"`
	ChangeAmount  int64             `db:"change_amount" json:"change_amount"`
	Notes         string            `db:"notes" json:"notes,omitempty"`
	Items         []TransactionItem `json:"items"`
	Cashier       *Cashier          `json:"cashier,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// Validate enforces the typed contract on service responses.
func (t *Transaction) Validate() error {
	if t.InvoiceNumber == "" {
		return fmt.Errorf("%w: transaction missing invoice number", ErrSchemaMismatch)
	}
	if t.PaymentMethod != PaymentMethodCash && t.PaymentMethod != PaymentMethodTransfer {
		return fmt.Errorf("%w: transaction %s has unknown payment method %q",
			ErrSchemaMismatch, t.InvoiceNumber, t.PaymentMethod)
	}
	if t.TotalAmount < 0 || t.PaymentAmount < 0 || t.ChangeAmount < 0 {
		return fmt.Errorf("%w: transaction %s has negative amount", ErrSchemaMismatch, t.InvoiceNumber)
	}
	for i := range t.Items {
		if t.Items[i].Quantity < 1 {
			return fmt.Errorf("%w: transaction %s item %d has quantity < 1",
				ErrSchemaMismatch, t.InvoiceNumber, i)
		}
	}
	return nil
}

// CreateTransactionRequest is the wire request sent to the Transaction Service
// at checkout. Prices are the cart snapshot prices, not re-fetched.
type CreateTransactionRequest struct {
	PaymentMethod string                 `json:"payment_method"`
	PaymentAmount int64                  `json:"payment_amount"`
	Notes         string                 `json:"notes,omitempty"`
	CashierID     int64                  `json:"cashier_id,omitempty"`
	Items         []TransactionItemInput `json:"items"`
}

// TransactionItemInput is one requested line in a transaction creation.
type TransactionItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// TransactionItem is one sold line inside a Transaction.
type TransactionItem struct {
	ID            int64  `db:"id" json:"id"`
	TransactionID int64  `db:"transaction_id" json:"transaction_id"`
	ProductID     int64  `db:"product_id" json:"product_id"`
	ProductName   string `db:"product_name" json:"product_name"`
	ProductCode   string `db:"product_code" json:"product_code"`
	Quantity      int    `db:"quantity" json:"quantity"`
	Price         int64  `db:"price" json:"price"`
	Subtotal      int64  `db:"subtotal" json:"subtotal"`
}

// TodaySummary aggregates the current day's sales for the dashboard.
type TodaySummary struct {
	TotalTransactions int64 `db:"total_transactions" json:"total_transactions"`
	TotalRevenue      int64 `db:"total_revenue" json:"total_revenue"`
	CashPayments      int64 `db:"cash_payments" json:"cash_payments"`
	TransferPayments  int64 `db:"transfer_payments" json:"transfer_payments"`
	TotalItemsSold    int64 `db:"total_items_sold" json:"total_items_sold"`
}
