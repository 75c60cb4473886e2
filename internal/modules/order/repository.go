package order

import (
	"context"
	"time"
)

// DashboardCounts are the raw aggregates behind the admin dashboard.
type DashboardCounts struct {
	TotalOrders   int64
	TotalRevenue  float64
	PendingOrders int64
	ThisWeek      int64
	LastWeek      int64
}

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists the order and its items and decrements product
	// stock, all inside a single transaction.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its items.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// GetOrderByIntentID retrieves an order by its external payment reference.
	GetOrderByIntentID(ctx context.Context, intentID string) (*Order, error)

	// ListOrdersByUser returns a user's orders, newest first.
	ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error)

	// ListAllOrders returns every order, newest first.
	ListAllOrders(ctx context.Context) ([]*Order, error)

	// UpdateStatus sets an order's lifecycle status.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error

	// UpdatePaymentStatus sets an order's payment status.
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error

	// CancelAndRestock atomically re-checks cancellability under a row lock,
	// restores every line item's product stock, and marks the order
	// cancelled (and refunded when refunded is true).
	CancelAndRestock(ctx context.Context, id string, refunded bool) error

	// MarkConfirmationSent flips the confirmation flag and reports whether
	// this call won the flip. At most one caller per order gets true.
	MarkConfirmationSent(ctx context.Context, id string) (bool, error)

	// GetProductPricing returns the catalog price and availability used to
	// capture line-item prices at checkout.
	GetProductPricing(ctx context.Context, productID string) (price float64, active bool, err error)

	// DashboardCounts computes the reporting aggregates relative to now.
	DashboardCounts(ctx context.Context, now time.Time) (*DashboardCounts, error)

	// RecentOrders returns the most recently created orders.
	RecentOrders(ctx context.Context, limit int) ([]*Order, error)
}
