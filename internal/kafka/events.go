package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TopicNotifications is the default topic the out-of-process email worker
// consumes.
const TopicNotifications = "order.notifications"

// OrderConfirmation asks the email worker to send the order confirmation.
type OrderConfirmation struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	TotalAmount float64   `json:"total_amount"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
