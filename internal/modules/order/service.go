package order

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/payment"
	"github.com/Sangeethasankar1020/django-react-ecommerce/internal/modules/user"
	"github.com/google/uuid"
)

// Notifier dispatches the confirmation email request to the out-of-process
// worker. Fire-and-forget: failures never surface to the caller.
type Notifier interface {
	OrderConfirmation(o *Order, email string)
}

// Deduper records webhook event ids so re-delivery of the same event is a
// no-op. First reports whether this id was seen for the first time; Forget
// releases an id recorded by First so a later delivery can retry.
type Deduper interface {
	First(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Service defines the order management business logic.
type Service interface {
	// PlaceOrder verifies payment when required, then persists the order,
	// its items, and the stock decrement atomically.
	PlaceOrder(ctx context.Context, userID string, req CreateOrderRequest) (*CreateOrderResponse, error)

	// GetOrder retrieves one of the caller's orders.
	GetOrder(ctx context.Context, userID, id string) (*Order, error)

	// ListUserOrders returns the caller's orders, newest first.
	ListUserOrders(ctx context.Context, userID string) ([]*Order, error)

	// CancelOrder refunds a paid gateway order and then cancels and restocks
	// atomically. Refund failure mutates nothing.
	CancelOrder(ctx context.Context, userID, id string) error

	// ReceiptPDF renders a downloadable receipt for one of the caller's orders.
	ReceiptPDF(ctx context.Context, userID, id string) ([]byte, error)

	// CreatePaymentIntent requests a hosted payment intent from the processor.
	CreatePaymentIntent(ctx context.Context, userID string, req CreateIntentRequest) (*payment.Intent, error)

	// PaymentStatus polls the processor for an intent's current state.
	PaymentStatus(ctx context.Context, intentID string) (*payment.Intent, error)

	// HandleWebhookEvent reconciles a verified processor event against local
	// state. Unknown intents and unhandled event types are discarded.
	HandleWebhookEvent(ctx context.Context, event *payment.Event) error

	// ListAllOrders returns every order (admin).
	ListAllOrders(ctx context.Context) ([]*Order, error)

	// UpdateOrderStatus sets an order's status to a member of the fixed set (admin).
	UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error)

	// DashboardData computes the admin reporting aggregates.
	DashboardData(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo     Repository
	gateway  payment.Gateway
	users    user.Repository
	notifier Notifier
	dedup    Deduper
}

// NewService creates a new order service.
func NewService(repo Repository, gateway payment.Gateway, users user.Repository, notifier Notifier, dedup Deduper) Service {
	return &service{repo: repo, gateway: gateway, users: users, notifier: notifier, dedup: dedup}
}

func (s *service) PlaceOrder(ctx context.Context, userID string, req CreateOrderRequest) (*CreateOrderResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	// ── Build line items, capture prices, compute the total ──────────────────
	var items []*OrderItem
	var total float64
	for _, ci := range req.Items {
		if ci.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for product %s", ci.ProductID)
		}
		pid, err := uuid.Parse(ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		price, active, err := s.repo.GetProductPricing(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", ci.ProductID)
		}
		if !active {
			return nil, fmt.Errorf("product %s is currently unavailable", ci.ProductID)
		}

		total += price * float64(ci.Quantity)
		items = append(items, &OrderItem{
			ID:        uuid.New(),
			ProductID: pid,
			Quantity:  ci.Quantity,
			UnitPrice: price,
		})
	}
	total = round2(total)

	o := &Order{
		ID:            uuid.New(),
		UserID:        uid,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		TotalAmount:   total,
		Items:         items,
	}

	// ── Verify payment before any mutation ────────────────────────────────────
	switch PaymentMethod(strings.ToLower(req.PaymentMethod)) {
	case MethodStripe:
		o.PaymentMethod = MethodStripe
		if req.PaymentIntentID == "" {
			return nil, fmt.Errorf("payment_intent_id is required for stripe payments")
		}
		intent, err := s.gateway.RetrieveIntent(ctx, req.PaymentIntentID)
		if err != nil {
			return nil, fmt.Errorf("payment verification failed: %w", err)
		}
		if intent.Status != payment.IntentSucceeded {
			return nil, fmt.Errorf("payment not completed")
		}
		if intent.Amount != minorUnits(total) {
			return nil, fmt.Errorf("payment amount does not match order total")
		}
		o.PaymentIntentID = req.PaymentIntentID
		o.PaymentStatus = PaymentPaid
	case MethodMock:
		// Test/bypass path: paid unconditionally, no external call.
		o.PaymentMethod = MethodMock
		o.PaymentStatus = PaymentPaid
	default:
		return nil, fmt.Errorf("unknown payment_method: %s", req.PaymentMethod)
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		if strings.Contains(err.Error(), "insufficient stock") {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if o.PaymentStatus == PaymentPaid {
		s.sendConfirmation(ctx, o)
	}

	return &CreateOrderResponse{
		Message:       "Order created successfully",
		ID:            o.ID,
		PaymentStatus: o.PaymentStatus,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, userID, id string) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}
	if o.UserID.String() != userID {
		// Other users' orders are indistinguishable from absent ones.
		return nil, fmt.Errorf("order not found")
	}
	return o, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

func (s *service) CancelOrder(ctx context.Context, userID, id string) error {
	o, err := s.GetOrder(ctx, userID, id)
	if err != nil {
		return err
	}
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return fmt.Errorf("order cannot be cancelled (current: %s)", o.Status)
	}

	// Refund first; the processor call cannot share the DB transaction, so
	// nothing local changes until the refund is confirmed.
	refunded := false
	if o.PaymentMethod == MethodStripe && o.PaymentStatus == PaymentPaid && o.PaymentIntentID != "" {
		refund, err := s.gateway.Refund(ctx, o.PaymentIntentID)
		if err != nil {
			return fmt.Errorf("refund failed: %w", err)
		}
		if refund.Status != payment.RefundSucceeded {
			return fmt.Errorf("refund failed, please contact support")
		}
		refunded = true
	}

	return s.repo.CancelAndRestock(ctx, id, refunded)
}

func (s *service) ReceiptPDF(ctx context.Context, userID, id string) ([]byte, error) {
	o, err := s.GetOrder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return renderReceiptPDF(o)
}

func (s *service) CreatePaymentIntent(ctx context.Context, userID string, req CreateIntentRequest) (*payment.Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid amount")
	}
	description := req.Description
	if description == "" {
		description = "E-commerce order"
	}
	return s.gateway.CreateIntent(ctx, req.Amount, req.Currency, description,
		map[string]string{"user_id": userID})
}

func (s *service) PaymentStatus(ctx context.Context, intentID string) (*payment.Intent, error) {
	return s.gateway.RetrieveIntent(ctx, intentID)
}

func (s *service) HandleWebhookEvent(ctx context.Context, event *payment.Event) error {
	// Re-delivery of a seen event id is a no-op. A dedup store outage falls
	// back to processing: paid→paid is harmless, dropping a confirmation is not.
	marked := false
	if s.dedup != nil && event.ID != "" {
		if first, err := s.dedup.First(ctx, event.ID); err == nil {
			if !first {
				return nil
			}
			marked = true
		}
	}

	if err := s.applyEvent(ctx, event); err != nil {
		// Release the id so the processor's retry of this failed delivery is
		// not swallowed as a duplicate.
		if marked {
			s.dedup.Forget(ctx, event.ID)
		}
		return err
	}
	return nil
}

func (s *service) applyEvent(ctx context.Context, event *payment.Event) error {
	switch event.Type {
	case payment.EventIntentSucceeded:
		o, ok := s.orderForEvent(ctx, event)
		if !ok {
			return nil
		}
		if err := s.repo.UpdatePaymentStatus(ctx, o.ID.String(), PaymentPaid); err != nil {
			return err
		}
		o.PaymentStatus = PaymentPaid
		s.sendConfirmation(ctx, o)
	case payment.EventIntentFailed:
		o, ok := s.orderForEvent(ctx, event)
		if !ok {
			return nil
		}
		return s.repo.UpdatePaymentStatus(ctx, o.ID.String(), PaymentFailed)
	}
	return nil
}

// orderForEvent resolves the local order behind a webhook event. Unknown
// intents are discarded: the order row may not exist yet when the processor
// fires before creation commits.
func (s *service) orderForEvent(ctx context.Context, event *payment.Event) (*Order, bool) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Object, &obj); err != nil || obj.ID == "" {
		return nil, false
	}
	o, err := s.repo.GetOrderByIntentID(ctx, obj.ID)
	if err != nil {
		return nil, false
	}
	return o, true
}

// sendConfirmation enqueues the confirmation email at most once per order.
func (s *service) sendConfirmation(ctx context.Context, o *Order) {
	if s.notifier == nil {
		return
	}
	first, err := s.repo.MarkConfirmationSent(ctx, o.ID.String())
	if err != nil || !first {
		return
	}
	email := ""
	if s.users != nil {
		if u, err := s.users.GetUserByID(ctx, o.UserID.String()); err == nil {
			email = u.Email
		}
	}
	s.notifier.OrderConfirmation(o, email)
}

func (s *service) ListAllOrders(ctx context.Context) ([]*Order, error) {
	return s.repo.ListAllOrders(ctx)
}

func (s *service) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	newStatus := OrderStatus(strings.ToLower(status))
	valid := false
	for _, st := range ValidStatuses {
		if st == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	o.Status = newStatus
	return o, nil
}

func (s *service) DashboardData(ctx context.Context) (*Dashboard, error) {
	counts, err := s.repo.DashboardCounts(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentOrders(ctx, 3)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*Order{}
	}

	return &Dashboard{
		TotalOrders:   counts.TotalOrders,
		TotalRevenue:  round2(counts.TotalRevenue),
		PendingOrders: counts.PendingOrders,
		Growth:        ComputeGrowth(counts.ThisWeek, counts.LastWeek),
		RecentOrders:  recent,
	}, nil
}

// ComputeGrowth is the week-over-week order growth percentage, rounded to
// two decimals. A zero prior week reads as 100% growth when anything was
// ordered this week and 0% otherwise.
func ComputeGrowth(thisWeek, lastWeek int64) float64 {
	switch {
	case lastWeek > 0:
		return round2(float64(thisWeek-lastWeek) / float64(lastWeek) * 100)
	case thisWeek > 0:
		return 100
	default:
		return 0
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// minorUnits converts a monetary amount to the processor's integer cents.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
