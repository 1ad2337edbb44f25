package txservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// Client talks to a remote Transaction Service over HTTP. Response envelopes
// are decoded into typed structs and validated at this boundary; anything
// that does not fit the contract fails fast with models.ErrSchemaMismatch.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a transaction service client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

// envelope is the service's uniform response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// CreateTransaction submits a checkout request and returns the persisted,
// authoritative transaction.
func (c *Client) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "txservice.CreateTransaction")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var tx models.Transaction
	if err := c.do(httpReq, &tx); err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	c.logger.Info("Transaction created",
		zap.String("invoice", tx.InvoiceNumber),
		zap.Int64("total", tx.TotalAmount))
	return &tx, nil
}

// GetTransactionByInvoice looks up a persisted transaction.
func (c *Client) GetTransactionByInvoice(ctx context.Context, invoice string) (*models.Transaction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transactions/invoice/"+url.PathEscape(invoice), nil)
	if err != nil {
		return nil, err
	}

	var tx models.Transaction
	if err := c.do(httpReq, &tx); err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TodaySummary fetches the authoritative summary of today's sales.
func (c *Client) TodaySummary(ctx context.Context) (*models.TodaySummary, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transactions/today", nil)
	if err != nil {
		return nil, err
	}

	var s models.TodaySummary
	if err := c.do(httpReq, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transaction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: non-JSON response (status %d)", models.ErrSchemaMismatch, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The service's reason travels to the operator unchanged.
		if env.Error != "" {
			return fmt.Errorf("%s", env.Error)
		}
		return fmt.Errorf("transaction service returned status %d", resp.StatusCode)
	}

	if len(env.Data) == 0 {
		return fmt.Errorf("%w: missing data field", models.ErrSchemaMismatch)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrSchemaMismatch, err)
	}
	return nil
}
