package order

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// ValidStatuses is the fixed set accepted by the admin status update.
var ValidStatuses = []OrderStatus{
	StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	MethodStripe PaymentMethod = "stripe"
	// MethodMock marks the order paid without touching the processor.
	MethodMock PaymentMethod = "mock"
)

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Order is a customer's order with its line items. Orders are never
// hard-deleted; cancellation is a status change.
type Order struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	Status           OrderStatus   `json:"status"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	PaymentIntentID  string        `json:"payment_intent_id,omitempty"`
	TotalAmount      float64       `json:"total_amount"`
	ConfirmationSent bool          `json:"-"`
	Items            []*OrderItem  `json:"items,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// OrderItem is a single line item. UnitPrice is captured at order time and
// never re-read from the catalog.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

// CartItem describes what the customer wants at checkout.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the payload for creating a new order.
type CreateOrderRequest struct {
	PaymentMethod   string     `json:"payment_method"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	Items           []CartItem `json:"items"`
}

// CreateOrderResponse is the creation result.
type CreateOrderResponse struct {
	Message       string        `json:"message"`
	ID            uuid.UUID     `json:"id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// CreateIntentRequest asks the processor for a hosted payment intent.
// Amount is in minor currency units.
type CreateIntentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateStatusRequest is the admin payload for setting an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Dashboard is the admin reporting payload.
type Dashboard struct {
	TotalOrders   int64    `json:"total_orders"`
	TotalRevenue  float64  `json:"total_revenue"`
	PendingOrders int64    `json:"pending_orders"`
	Growth        float64  `json:"growth"`
	RecentOrders  []*Order `json:"recent_orders"`
}
