package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// webhookTolerance bounds how old a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// VerifyWebhook validates the Stripe-Signature header (t=...,v1=... scheme:
// HMAC-SHA256 over "<t>.<payload>") and parses the event. The timestamp must
// be within tolerance to limit replay.
func (g *stripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*Event, error) {
	return verifySignedEvent(payload, sigHeader, g.webhookSecret, time.Now())
}

func verifySignedEvent(payload []byte, sigHeader, secret string, now time.Time) (*Event, error) {
	if secret == "" {
		return nil, fmt.Errorf("webhook secret not configured")
	}
	if sigHeader == "" {
		return nil, fmt.Errorf("missing signature header")
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid signature timestamp")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return nil, fmt.Errorf("malformed signature header")
	}

	if age := now.Sub(time.Unix(timestamp, 0)); age > webhookTolerance || age < -webhookTolerance {
		return nil, fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("signature verification failed")
	}

	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return event, nil
}
