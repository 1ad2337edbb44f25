package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pos-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is absent; callers fall back to the
// authoritative service.
var ErrCacheMiss = errors.New("cache miss")

const (
	productTTL  = 5 * time.Minute
	summaryTTL  = 48 * time.Hour
	productsSet = "product:cached"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// GetProduct returns a cached catalog snapshot.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	raw, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("corrupt product cache entry: %w", err)
	}
	return &p, nil
}

// SetProduct caches a catalog snapshot.
func (c *Client) SetProduct(ctx context.Context, p *models.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, productKey(p.ID), raw, productTTL)
	pipe.SAdd(ctx, productsSet, p.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateProducts drops every cached product snapshot. Called after a
// checkout succeeds, since server-side stock just changed.
func (c *Client) InvalidateProducts(ctx context.Context) error {
	ids, err := c.rdb.SMembers(ctx, productsSet).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, productKey(n))
	}
	keys = append(keys, productsSet)
	return c.rdb.Del(ctx, keys...).Err()
}

func summaryKey(day time.Time) string {
	return "summary:today:" + day.Format("20060102")
}

// GetTodaySummary reads the cached summary for the given day.
func (c *Client) GetTodaySummary(ctx context.Context, day time.Time) (*models.TodaySummary, error) {
	fields, err := c.rdb.HGetAll(ctx, summaryKey(day)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrCacheMiss
	}

	asInt := func(k string) int64 {
		n, _ := strconv.ParseInt(fields[k], 10, 64)
		return n
	}
	return &models.TodaySummary{
		TotalTransactions: asInt("total_transactions"),
		TotalRevenue:      asInt("total_revenue"),
		CashPayments:      asInt("cash_payments"),
		TransferPayments:  asInt("transfer_payments"),
		TotalItemsSold:    asInt("total_items_sold"),
	}, nil
}

// SetTodaySummary overwrites the cached summary with an authoritative one.
func (c *Client) SetTodaySummary(ctx context.Context, day time.Time, s *models.TodaySummary) error {
	key := summaryKey(day)

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key,
		"total_transactions", s.TotalTransactions,
		"total_revenue", s.TotalRevenue,
		"cash_payments", s.CashPayments,
		"transfer_payments", s.TransferPayments,
		"total_items_sold", s.TotalItemsSold,
	)
	pipe.Expire(ctx, key, summaryTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// ApplySale increments the summary counters for one completed sale.
func (c *Client) ApplySale(ctx context.Context, day time.Time, event *models.SaleCompletedEvent) error {
	key := summaryKey(day)

	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "total_transactions", 1)
	pipe.HIncrBy(ctx, key, "total_revenue", event.TotalAmount)
	pipe.HIncrBy(ctx, key, "total_items_sold", int64(event.ItemCount))
	if event.PaymentMethod == models.PaymentMethodTransfer {
		pipe.HIncrBy(ctx, key, "transfer_payments", 1)
	} else {
		pipe.HIncrBy(ctx, key, "cash_payments", 1)
	}
	pipe.Expire(ctx, key, summaryTTL)
	_, err := pipe.Exec(ctx)
	return err
}
