package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// CreateOrder inserts the order and all its items and decrements stock
// inside a single transaction. A partial order is never observable.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, user_id, status, payment_method, payment_status, payment_intent_id,
		   total_amount, confirmation_sent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.UserID, o.Status, o.PaymentMethod, o.PaymentStatus,
		nilIfEmpty(o.PaymentIntentID), o.TotalAmount, o.ConfirmationSent)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}

		// Relative decrement with the availability guard on the same
		// statement; a failed guard aborts the whole order.
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, updated_at=NOW()
			WHERE id=$2 AND stock >= $1`,
			item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("insufficient stock for product %s", item.ProductID)
		}
	}

	return tx.Commit()
}

const selectSQL = `
	SELECT id, user_id, status, payment_method, payment_status, payment_intent_id,
	       total_amount, confirmation_sent, created_at, updated_at
	FROM orders`

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectSQL+` WHERE id=$1`, uid).Scan)
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) GetOrderByIntentID(ctx context.Context, intentID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectSQL+` WHERE payment_intent_id=$1`, intentID).Scan)
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrdersByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.queryOrders(ctx, selectSQL+` WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) ListAllOrders(ctx context.Context) ([]*Order, error) {
	return r.queryOrders(ctx, selectSQL+` ORDER BY created_at DESC`)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status OrderStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

func (r *postgresRepo) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

// CancelAndRestock serializes concurrent cancellations on the order row
// lock and re-checks the status inside the transaction, so a lost update on
// stock or a double restock cannot happen.
func (r *postgresRepo) CancelAndRestock(ctx context.Context, id string, refunded bool) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("order not found")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id=$1 FOR UPDATE`, uid).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("order not found")
		}
		return err
	}
	if status != StatusPending && status != StatusProcessing {
		return fmt.Errorf("order cannot be cancelled (current: %s)", status)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id=$1`, uid)
	if err != nil {
		return err
	}
	type restock struct {
		productID uuid.UUID
		quantity  int
	}
	var restocks []restock
	for rows.Next() {
		var rs restock
		if err := rows.Scan(&rs.productID, &rs.quantity); err != nil {
			rows.Close()
			return err
		}
		restocks = append(restocks, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rs := range restocks {
		_, err = tx.ExecContext(ctx, `
			UPDATE products SET stock = stock + $1, updated_at=NOW() WHERE id=$2`,
			rs.quantity, rs.productID)
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}

	query := `UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`
	args := []interface{}{StatusCancelled, time.Now(), uid}
	if refunded {
		query = `UPDATE orders SET status=$1, payment_status=$2, updated_at=$3 WHERE id=$4`
		args = []interface{}{StatusCancelled, PaymentRefunded, time.Now(), uid}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkConfirmationSent uses a conditional update so only one caller per
// order can win the flip, whichever path (creation or webhook) gets there
// first.
func (r *postgresRepo) MarkConfirmationSent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET confirmation_sent=true, updated_at=NOW()
		WHERE id=$1 AND NOT confirmation_sent`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postgresRepo) GetProductPricing(ctx context.Context, productID string) (float64, bool, error) {
	var price float64
	var active bool
	err := r.db.QueryRowContext(ctx,
		`SELECT price, is_active FROM products WHERE id=$1`, productID).
		Scan(&price, &active)
	return price, active, err
}

func (r *postgresRepo) DashboardCounts(ctx context.Context, now time.Time) (*DashboardCounts, error) {
	c := &DashboardCounts{}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount) FILTER (WHERE payment_status='paid'), 0),
		       COUNT(*) FILTER (WHERE status='pending')
		FROM orders`).Scan(&c.TotalOrders, &c.TotalRevenue, &c.PendingOrders)
	if err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE created_at >= $1),
		       COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $1)
		FROM orders WHERE created_at >= $2`,
		weekAgo, twoWeeksAgo).Scan(&c.ThisWeek, &c.LastWeek)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (r *postgresRepo) RecentOrders(ctx context.Context, limit int) ([]*Order, error) {
	return r.queryOrders(ctx, selectSQL+` ORDER BY created_at DESC LIMIT $1`, limit)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var intentID sql.NullString
	err := scan(&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&intentID, &o.TotalAmount, &o.ConfirmationSent, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if intentID.Valid {
		o.PaymentIntentID = intentID.String
	}
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Items, err = r.listItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
