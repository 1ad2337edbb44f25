package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ErrProductNotFound is returned when the catalog has no such product.
var ErrProductNotFound = errors.New("product not found")

// Client supplies catalog snapshots for the checkout screen. Snapshots pass
// through a redis cache; the cart itself copies the snapshot again at add
// time, so a cache entry going stale never rewrites an open cart line.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redisclient.Client
	logger  *zap.Logger
}

// NewClient creates a catalog client. cache may be nil.
func NewClient(baseURL string, timeout time.Duration, cache *redisclient.Client) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  util.GetLogger(),
	}
}

// GetProduct returns the current catalog snapshot for a product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if c.cache != nil {
		p, err := c.cache.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			c.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}

	p, err := c.fetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetProduct(ctx, p); err != nil {
			c.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (c *Client) fetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/products/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: non-JSON catalog response", models.ErrSchemaMismatch)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data field", models.ErrSchemaMismatch)
	}

	var p models.Product
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaMismatch, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Invalidate drops cached snapshots after server-side stock changed.
func (c *Client) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.InvalidateProducts(ctx)
}
