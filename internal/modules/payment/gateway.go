package payment

import (
	"context"
	"encoding/json"
)

// Intent is the processor's handle for an attempted charge. Amount is in the
// minor currency unit (cents).
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	LastError    string `json:"last_error,omitempty"`
}

// Intent statuses reported by the processor.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
)

// Refund is the result of a refund request.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RefundSucceeded is the terminal status of a successful refund.
const RefundSucceeded = "succeeded"

// Event is a verified webhook event from the processor.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Webhook event types the order module reconciles.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Gateway is the interface every payment processor adapter must implement.
// To add a new processor, implement this interface.
type Gateway interface {
	// CreateIntent requests a hosted payment intent for the given amount in
	// minor currency units.
	CreateIntent(ctx context.Context, amount int64, currency, description string, metadata map[string]string) (*Intent, error)
	// RetrieveIntent queries the processor for the current state of an intent.
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	// Refund requests a full refund for the charge behind an intent.
	Refund(ctx context.Context, intentID string) (*Refund, error)
	// VerifyWebhook checks the signature header against the raw payload and
	// returns the parsed event.
	VerifyWebhook(payload []byte, sigHeader string) (*Event, error)
}
