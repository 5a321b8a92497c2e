package lookuporder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

var (
	ErrOrderNotFound     = errors.New("ORDER_NOT_FOUND")
	ErrOrderLookupFailed = errors.New("ORDER_LOOKUP_FAILED")
)

// Repository finds orders by their upper-cased id. A missing order is
// reported as ErrOrderNotFound.
type Repository interface {
	FindOrder(ctx context.Context, orderID string) (*Order, error)
}

// MockRepository serves a fixed in-memory catalog.
type MockRepository struct {
	orders map[string]Order
}

func NewMockRepository() *MockRepository {
	tracking := "1Z999AA1234567890"
	return &MockRepository{
		orders: map[string]Order{
			"ORD123456": {
				OrderID:      "ORD123456",
				Status:       "shipped",
				CustomerName: "John Doe",
				Items: []Item{
					{Name: "Product A", Quantity: 2, Price: 29.99},
					{Name: "Product B", Quantity: 1, Price: 49.99},
				},
				Total:             109.97,
				ShippingAddress:   "123 Main St, City, State 12345",
				EstimatedDelivery: "2024-01-15",
				TrackingNumber:    &tracking,
			},
			"ORD789012": {
				OrderID:      "ORD789012",
				Status:       "processing",
				CustomerName: "Jane Smith",
				Items: []Item{
					{Name: "Product C", Quantity: 1, Price: 79.99},
				},
				Total:             79.99,
				ShippingAddress:   "456 Oak Ave, City, State 67890",
				EstimatedDelivery: "2024-01-20",
			},
		},
	}
}

func (r *MockRepository) FindOrder(_ context.Context, orderID string) (*Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	items := make([]Item, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return &order, nil
}

// PostgresRepository reads orders and their line items.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindOrder(ctx context.Context, orderID string) (*Order, error) {
	var (
		order    Order
		tracking sql.NullString
	)
	query := `SELECT order_id, status, customer_name, total, shipping_address, estimated_delivery, tracking_number
		FROM orders WHERE order_id = $1`
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.OrderID, &order.Status, &order.CustomerName, &order.Total,
		&order.ShippingAddress, &order.EstimatedDelivery, &tracking,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderLookupFailed, err)
	}
	if tracking.Valid {
		order.TrackingNumber = &tracking.String
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, quantity, price FROM order_items WHERE order_id = $1 ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderLookupFailed, err)
	}
	defer rows.Close()

	order.Items = []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOrderLookupFailed, err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderLookupFailed, err)
	}

	return &order, nil
}

// CachedRepository is a Redis read-through cache in front of another
// repository. Misses are not cached and cache faults fall through.
type CachedRepository struct {
	next   Repository
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(next Repository, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "order-cache"}),
	}
}

func cacheKey(orderID string) string {
	return "order:" + orderID
}

func (r *CachedRepository) FindOrder(ctx context.Context, orderID string) (*Order, error) {
	key := cacheKey(orderID)
	val, err := r.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var order Order
		if err := json.Unmarshal([]byte(val), &order); err == nil {
			return &order, nil
		}
		r.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("order cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	order, err := r.next.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(order)
	if err != nil {
		return order, nil
	}
	if err := r.redis.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("order cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return order, nil
}
