package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultStripeBaseURL is the production Stripe API endpoint. Tests point
// the gateway at an httptest server instead.
const DefaultStripeBaseURL = "https://api.stripe.com"

type stripeGateway struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewStripeGateway creates a Stripe adapter. The credential lives on the
// instance; nothing is stored in package state.
func NewStripeGateway(secretKey, webhookSecret, baseURL string) Gateway {
	if baseURL == "" {
		baseURL = DefaultStripeBaseURL
	}
	return &stripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amount int64, currency, description string, metadata map[string]string) (*Intent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	if description != "" {
		form.Set("description", description)
	}
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	intent := &Intent{}
	if err := g.do(ctx, http.MethodPost, "/v1/payment_intents", form, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	if intentID == "" {
		return nil, fmt.Errorf("intent id is required")
	}

	var raw struct {
		Intent
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
	}
	if err := g.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, &raw); err != nil {
		return nil, err
	}
	intent := raw.Intent
	if raw.LastPaymentError != nil {
		intent.LastError = raw.LastPaymentError.Message
	}
	return &intent, nil
}

func (g *stripeGateway) Refund(ctx context.Context, intentID string) (*Refund, error) {
	if intentID == "" {
		return nil, fmt.Errorf("intent id is required")
	}

	form := url.Values{}
	form.Set("payment_intent", intentID)
	form.Set("reason", "requested_by_customer")

	refund := &Refund{}
	if err := g.do(ctx, http.MethodPost, "/v1/refunds", form, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// do issues a form-encoded request and decodes the JSON response. Non-2xx
// responses surface Stripe's error message.
func (g *stripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}
