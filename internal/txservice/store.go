package txservice

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store is a Postgres-backed Transaction Service for standalone terminals:
// the POS box itself owns invoice numbering, stock decrement, and
// persistence. It satisfies the same Service contract as the HTTP client,
// so the checkout path cannot tell the two apart.
type Store struct {
	db *sqlx.DB
}

// NewStore connects to the local transaction database.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTransaction persists a sale: locks and decrements stock, assigns the
// invoice number, and stores the transaction with its items, all in one
// database transaction.
func (s *Store) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("transaction requires at least one item")
	}
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodTransfer {
		return nil, fmt.Errorf("unknown payment method %q", req.PaymentMethod)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	type lockedProduct struct {
		ID    int64  `db:"id"`
		Code  string `db:"code"`
		Name  string `db:"name"`
		Stock int    `db:"stock"`
	}

	var total int64
	products := make([]lockedProduct, len(req.Items))
	for i, item := range req.Items {
		var p lockedProduct
		err := tx.GetContext(ctx, &p,
			"SELECT id, code, name, stock FROM products WHERE id = $1 FOR UPDATE", item.ProductID)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found: %d", item.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}
		if p.Stock < item.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s: available=%d, requested=%d",
				p.Name, p.Stock, item.Quantity)
		}
		products[i] = p
		total += item.Price * int64(item.Quantity)
	}

	if req.PaymentMethod == models.PaymentMethodCash && req.PaymentAmount < total {
		return nil, fmt.Errorf("payment amount %d below total %d", req.PaymentAmount, total)
	}
	change := req.PaymentAmount - total
	if change < 0 {
		change = 0
	}

	invoice, err := s.nextInvoiceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &models.Transaction{
		InvoiceNumber: invoice,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		PaymentAmount: req.PaymentAmount,
		ChangeAmount:  change,
		Notes:         req.Notes,
	}

	err = tx.GetContext(ctx, result, `
		INSERT INTO transactions (invoice_number, total_amount, payment_method, payment_amount, change_amount, notes, cashier_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0))
		RETURNING id, created_at, updated_at`,
		invoice, total, req.PaymentMethod, req.PaymentAmount, change, req.Notes, req.CashierID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i, item := range req.Items {
		p := products[i]
		subtotal := item.Price * int64(item.Quantity)

		txItem := models.TransactionItem{
			TransactionID: result.ID,
			ProductID:     item.ProductID,
			ProductName:   p.Name,
			ProductCode:   p.Code,
			Quantity:      item.Quantity,
			Price:         item.Price,
			Subtotal:      subtotal,
		}
		err = tx.GetContext(ctx, &txItem.ID, `
			INSERT INTO transaction_items (transaction_id, product_id, product_name, product_code, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			txItem.TransactionID, txItem.ProductID, txItem.ProductName, txItem.ProductCode,
			txItem.Quantity, txItem.Price, txItem.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert transaction item: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2",
			item.Quantity, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		result.Items = append(result.Items, txItem)
	}

	if req.CashierID != 0 {
		var cashier models.Cashier
		err := tx.GetContext(ctx, &cashier, "SELECT id, name FROM users WHERE id = $1", req.CashierID)
		if err == nil {
			result.Cashier = &cashier
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to load cashier: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// nextInvoiceNumber assigns INV-YYYYMMDD-NNNN, with NNNN restarting each day.
// Runs inside the creating transaction so the count cannot race a concurrent
// insert on this terminal.
func (s *Store) nextInvoiceNumber(ctx context.Context, tx *sqlx.Tx) (string, error) {
	var n int
	err := tx.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM transactions WHERE created_at::date = CURRENT_DATE")
	if err != nil {
		return "", fmt.Errorf("failed to count today's transactions: %w", err)
	}
	return fmt.Sprintf("INV-%s-%04d", time.Now().Format("20060102"), n+1), nil
}

// GetTransactionByInvoice retrieves a persisted transaction with its items.
func (s *Store) GetTransactionByInvoice(ctx context.Context, invoice string) (*models.Transaction, error) {
	var result models.Transaction
	err := s.db.GetContext(ctx, &result, `
		SELECT id, invoice_number, total_amount, payment_method, payment_amount, change_amount,
		       COALESCE(notes, '') AS notes, created_at, updated_at
		FROM transactions WHERE invoice_number = $1`, invoice)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &result.Items, `
		SELECT id, transaction_id, product_id, product_name, product_code, quantity, price, subtotal
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`, result.ID)
	if err != nil {
		return nil, err
	}

	var cashier models.Cashier
	err = s.db.GetContext(ctx, &cashier, `
		SELECT u.id, u.name FROM users u
		JOIN transactions t ON t.cashier_id = u.id
		WHERE t.id = $1`, result.ID)
	if err == nil {
		result.Cashier = &cashier
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	return &result, nil
}

// TodaySummary aggregates today's sales.
func (s *Store) TodaySummary(ctx context.Context) (*models.TodaySummary, error) {
	var summary models.TodaySummary
	err := s.db.GetContext(ctx, &summary, `
		SELECT COUNT(*)                                                        AS total_transactions,
		       COALESCE(SUM(total_amount), 0)                                  AS total_revenue,
		       COUNT(*) FILTER (WHERE payment_method = 'cash')                 AS cash_payments,
		       COUNT(*) FILTER (WHERE payment_method = 'transfer')             AS transfer_payments,
		       COALESCE((SELECT SUM(ti.quantity)
		                 FROM transaction_items ti
		                 JOIN transactions t2 ON t2.id = ti.transaction_id
		                 WHERE t2.created_at::date = CURRENT_DATE), 0)         AS total_items_sold
		FROM transactions
		WHERE created_at::date = CURRENT_DATE`)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
