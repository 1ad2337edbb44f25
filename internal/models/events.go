package models

import "time"

// Event types
const (
	EventTypeSaleCompleted = "SALE_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleCompletedEvent is published after the Transaction Service confirms a
// checkout. Consumers use it to keep the today-summary cache current.
type SaleCompletedEvent struct {
	BaseEvent
	TransactionID int64  `json:"transaction_id"`
	InvoiceNumber string `json:"invoice_number"`
	TotalAmount   int64  `json:"total_amount"`
	PaymentMethod string `json:"payment_method"`
	ItemCount     int    `json:"item_count"`
	CashierID     int64  `json:"cashier_id,omitempty"`
}
