package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

func completedPayload(sessionID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": %q,
			"payment_intent": "pi_123",
			"amount_total": %d,
			"metadata": {"profile_id": "prof-1", "donor_name": "Aisha"}
		}}
	}`, sessionID, amount))
}

func TestVerifySignature(t *testing.T) {
	payload := completedPayload("cs_1", 5000)
	now := time.Now()

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		wantErr bool
	}{
		{
			name:    "Given a freshly signed payload When verifying Then it passes",
			payload: payload,
			header:  SignPayload(payload, testSecret, now),
			secret:  testSecret,
		},
		{
			name:    "Given a missing header When verifying Then it fails",
			payload: payload,
			header:  "",
			secret:  testSecret,
			wantErr: true,
		},
		{
			name:    "Given a tampered payload When verifying Then it fails",
			payload: []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_other"}}}`),
			header:  SignPayload(payload, testSecret, now),
			secret:  testSecret,
			wantErr: true,
		},
		{
			name:    "Given the wrong secret When verifying Then it fails",
			payload: payload,
			header:  SignPayload(payload, "whsec_wrong", now),
			secret:  testSecret,
			wantErr: true,
		},
		{
			name:    "Given a stale timestamp When verifying Then it fails",
			payload: payload,
			header:  SignPayload(payload, testSecret, now.Add(-6*time.Minute)),
			secret:  testSecret,
			wantErr: true,
		},
		{
			name:    "Given a malformed header When verifying Then it fails",
			payload: payload,
			header:  "t=notanumber,v1=deadbeef",
			secret:  testSecret,
			wantErr: true,
		},
		{
			name:    "Given a header without v1 When verifying Then it fails",
			payload: payload,
			header:  fmt.Sprintf("t=%d", now.Unix()),
			secret:  testSecret,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.payload, tt.header, tt.secret, DefaultTolerance)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSignature) {
					t.Errorf("expected ErrInvalidSignature, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected valid signature, got %v", err)
			}
		})
	}
}

func TestVerifySignatureMultipleCandidates(t *testing.T) {
	payload := completedPayload("cs_1", 5000)
	now := time.Now()

	// Stripe sends extra v1 entries during secret rotation; one valid
	// candidate is enough.
	valid := SignPayload(payload, testSecret, now)
	header := valid + ",v1=0000000000000000000000000000000000000000000000000000000000000000"

	if err := VerifySignature(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Errorf("expected one valid candidate to pass, got %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	now := time.Now()

	t.Run("completed event carries session details", func(t *testing.T) {
		payload := completedPayload("cs_42", 5000)
		event, err := ParseEvent(payload, SignPayload(payload, testSecret, now), testSecret)
		if err != nil {
			t.Fatalf("ParseEvent failed: %v", err)
		}

		if event.Completed == nil {
			t.Fatal("expected Completed to be set")
		}
		if event.Expired != nil {
			t.Error("expected Expired to be nil")
		}
		if event.Completed.SessionID != "cs_42" {
			t.Errorf("SessionID = %q, want cs_42", event.Completed.SessionID)
		}
		if event.Completed.PaymentIntentID != "pi_123" {
			t.Errorf("PaymentIntentID = %q, want pi_123", event.Completed.PaymentIntentID)
		}
		if event.Completed.AmountTotal != 5000 {
			t.Errorf("AmountTotal = %d, want 5000", event.Completed.AmountTotal)
		}
		if event.Completed.Metadata["profile_id"] != "prof-1" {
			t.Errorf("Metadata[profile_id] = %q, want prof-1", event.Completed.Metadata["profile_id"])
		}
	})

	t.Run("expired event carries only the session id", func(t *testing.T) {
		payload := []byte(`{"type":"checkout.session.expired","data":{"object":{"id":"cs_7"}}}`)
		event, err := ParseEvent(payload, SignPayload(payload, testSecret, now), testSecret)
		if err != nil {
			t.Fatalf("ParseEvent failed: %v", err)
		}

		if event.Expired == nil || event.Expired.SessionID != "cs_7" {
			t.Errorf("Expired = %+v, want session cs_7", event.Expired)
		}
		if event.Completed != nil {
			t.Error("expected Completed to be nil")
		}
	})

	t.Run("unrecognized event type parses to bare Event", func(t *testing.T) {
		payload := []byte(`{"type":"payment_intent.created","data":{"object":{"id":"pi_9"}}}`)
		event, err := ParseEvent(payload, SignPayload(payload, testSecret, now), testSecret)
		if err != nil {
			t.Fatalf("ParseEvent failed: %v", err)
		}

		if event.Type != "payment_intent.created" {
			t.Errorf("Type = %q, want payment_intent.created", event.Type)
		}
		if event.Completed != nil || event.Expired != nil {
			t.Error("expected both variants to be nil")
		}
	})

	t.Run("bad signature rejects before parsing", func(t *testing.T) {
		payload := completedPayload("cs_42", 5000)
		_, err := ParseEvent(payload, "t=1,v1=bad", testSecret)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("verified garbage payload errors", func(t *testing.T) {
		payload := []byte("not json")
		_, err := ParseEvent(payload, SignPayload(payload, testSecret, now), testSecret)
		if err == nil {
			t.Error("expected unmarshal error")
		}
	})
}
