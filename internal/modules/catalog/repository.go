package catalog

import "context"

// Repository defines data access for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]*Product, error)
	Update(ctx context.Context, p *Product) error

	// AdjustStock applies a relative stock change. Negative deltas fail if
	// they would drive stock below zero.
	AdjustStock(ctx context.Context, id string, delta int) error
}
