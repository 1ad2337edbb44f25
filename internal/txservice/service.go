package txservice

import (
	"context"
	"errors"

	"pos-service/internal/models"
)

// ErrNotFound is returned when no transaction exists for an invoice number.
var ErrNotFound = errors.New("transaction not found")

// Service is the Transaction Service contract. It is the sole authority for
// invoice numbering, stock decrement, and persisted totals; callers treat
// its responses as ground truth and never recompute them.
type Service interface {
	CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error)
	GetTransactionByInvoice(ctx context.Context, invoice string) (*models.Transaction, error)
	TodaySummary(ctx context.Context) (*models.TodaySummary, error)
}
