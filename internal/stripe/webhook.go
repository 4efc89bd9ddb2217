package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types the platform acts on. Everything else is
// acknowledged and ignored.
const (
	EventTypeSessionCompleted = "checkout.session.completed"
	EventTypeSessionExpired   = "checkout.session.expired"
)

// DefaultTolerance is how far a webhook timestamp may drift from now
// before the signature is rejected.
const DefaultTolerance = 5 * time.Minute

// ErrInvalidSignature is returned for a missing, malformed, stale, or
// unverifiable webhook signature. Verification fails closed; no event
// payload is trusted until the signature checks out.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// Event is the closed set of payment lifecycle events the reconciler
// handles. Exactly one of Completed or Expired is non-nil for the relevant
// types; all other event types parse to an Event with both nil.
type Event struct {
	Type      string
	Completed *SessionCompleted
	Expired   *SessionExpired
}

// SessionCompleted carries the settled session details
type SessionCompleted struct {
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64 // minor units, as settled
	Metadata        map[string]string
}

// SessionExpired identifies an abandoned checkout session
type SessionExpired struct {
	SessionID string
}

// wire format of the event envelope and the session object inside it
type eventPayload struct {
	Type string `json:"type"`
	Data struct {
		Object sessionPayload `json:"object"`
	} `json:"data"`
}

type sessionPayload struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

// VerifySignature checks a Stripe-Signature header ("t=<unix>,v1=<hex>")
// against the raw payload. The signed content is "<t>.<payload>" keyed with
// the endpoint secret. Comparison is constant-time and the timestamp must
// be within tolerance of now.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	return verifySignatureAt(payload, header, secret, tolerance, time.Now())
}

func verifySignatureAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrInvalidSignature
	}

	var timestamp int64
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, v)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		drift := now.Sub(time.Unix(timestamp, 0))
		if drift > tolerance || drift < -tolerance {
			return ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// ParseEvent verifies the signature and decodes the payload into the closed
// Event variant. Unrecognized event types are returned with only Type set
// so the caller can acknowledge them without acting.
func ParseEvent(payload []byte, header, secret string) (Event, error) {
	if err := VerifySignature(payload, header, secret, DefaultTolerance); err != nil {
		return Event{}, err
	}

	var raw eventPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event := Event{Type: raw.Type}

	switch raw.Type {
	case EventTypeSessionCompleted:
		event.Completed = &SessionCompleted{
			SessionID:       raw.Data.Object.ID,
			PaymentIntentID: raw.Data.Object.PaymentIntent,
			AmountTotal:     raw.Data.Object.AmountTotal,
			Metadata:        raw.Data.Object.Metadata,
		}
	case EventTypeSessionExpired:
		event.Expired = &SessionExpired{SessionID: raw.Data.Object.ID}
	}

	return event, nil
}

// SignPayload produces a valid Stripe-Signature header for the payload.
// Used by tests and local tooling to exercise the webhook endpoint.
func SignPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
