package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload() []byte {
	return []byte(`{
		"id": "evt_123",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_abc", "amount": 2500}}
	}`)
}

func TestVerifyWebhookValidSignature(t *testing.T) {
	now := time.Now()
	payload := eventPayload()

	event, err := verifySignedEvent(payload, sign(t, payload, testSecret, now), testSecret, now)
	if err != nil {
		t.Fatalf("verifySignedEvent: %v", err)
	}
	if event.ID != "evt_123" || event.Type != EventIntentSucceeded {
		t.Errorf("unexpected event: %+v", event)
	}
	if !strings.Contains(string(event.Data.Object), "pi_abc") {
		t.Errorf("data object not carried through: %s", event.Data.Object)
	}
}

func TestVerifyWebhookMissingSecret(t *testing.T) {
	now := time.Now()
	payload := eventPayload()

	_, err := verifySignedEvent(payload, sign(t, payload, testSecret, now), "", now)
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("err = %v, want missing secret error", err)
	}
}

func TestVerifyWebhookMissingHeader(t *testing.T) {
	_, err := verifySignedEvent(eventPayload(), "", testSecret, time.Now())
	if err == nil {
		t.Fatal("expected error for missing signature header")
	}
}

func TestVerifyWebhookWrongSecret(t *testing.T) {
	now := time.Now()
	payload := eventPayload()

	_, err := verifySignedEvent(payload, sign(t, payload, "whsec_other", now), testSecret, now)
	if err == nil || !strings.Contains(err.Error(), "verification failed") {
		t.Fatalf("err = %v, want signature mismatch", err)
	}
}

func TestVerifyWebhookTamperedPayload(t *testing.T) {
	now := time.Now()
	payload := eventPayload()
	header := sign(t, payload, testSecret, now)

	tampered := []byte(strings.Replace(string(payload), "2500", "1", 1))
	if _, err := verifySignedEvent(tampered, header, testSecret, now); err == nil {
		t.Fatal("expected error for tampered payload")
	}
}

func TestVerifyWebhookStaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := eventPayload()
	old := now.Add(-10 * time.Minute)

	_, err := verifySignedEvent(payload, sign(t, payload, testSecret, old), testSecret, now)
	if err == nil || !strings.Contains(err.Error(), "tolerance") {
		t.Fatalf("err = %v, want stale timestamp error", err)
	}
}

func TestVerifyWebhookMalformedHeader(t *testing.T) {
	for _, header := range []string{"v1=abc", "t=notanumber,v1=abc", "t=12345"} {
		if _, err := verifySignedEvent(eventPayload(), header, testSecret, time.Now()); err == nil {
			t.Errorf("header %q: expected error", header)
		}
	}
}

func TestVerifyWebhookMalformedPayload(t *testing.T) {
	now := time.Now()
	payload := []byte("{not json")

	_, err := verifySignedEvent(payload, sign(t, payload, testSecret, now), testSecret, now)
	if err == nil || !strings.Contains(err.Error(), "invalid event payload") {
		t.Fatalf("err = %v, want payload error", err)
	}
}
