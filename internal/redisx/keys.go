package redisx

import (
	"fmt"
	"time"
)

const (
	// Dedup processed webhook events: dedup:stripe:{event_id}
	keyDedupStripeEvent = "dedup:stripe:%s"
)

var (
	TTLDedup = 48 * time.Hour
)

// DedupStripeEventKey is the dedup key for a processor webhook event id.
func DedupStripeEventKey(eventID string) string {
	return fmt.Sprintf(keyDedupStripeEvent, eventID)
}
