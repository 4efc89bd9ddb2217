package core

import (
	"context"
	"errors"

	"github.com/diasporabridge/bridge/internal/stripe"
)

// HandlePaymentEvent applies a verified payment lifecycle event to the
// donation ledger and profile aggregate.
//
// The processor delivers events at least once and in no particular order,
// so every path here must be safe to replay. The storage layer's guarded
// transition (pending rows only) carries the idempotency: a redelivered
// completion matches no pending row and the aggregate is not credited
// again. Events for unknown sessions are ignored; a donation is never
// fabricated from a webhook.
//
// The only error surfaced is ErrReconciliationGap: the donation committed
// as completed but the profile credit did not. The donor already paid, so
// the caller still acknowledges the event; the gap is for operators.
func (p *Platform) HandlePaymentEvent(ctx context.Context, event stripe.Event) error {
	switch {
	case event.Completed != nil:
		return p.applyCompleted(ctx, event.Completed)
	case event.Expired != nil:
		return p.applyExpired(ctx, event.Expired)
	default:
		p.log.Debug("ignoring payment event", "type", event.Type)
		return nil
	}
}

func (p *Platform) applyCompleted(ctx context.Context, completed *stripe.SessionCompleted) error {
	credited, err := p.store.CompleteDonation(ctx,
		completed.SessionID, completed.PaymentIntentID, completed.AmountTotal)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.log.Warn("completed event for unknown session",
				"session_id", completed.SessionID)
			return nil
		}
		if errors.Is(err, ErrReconciliationGap) {
			p.log.Error("completed donation not credited",
				"session_id", completed.SessionID,
				"amount", completed.AmountTotal,
				"error", err)
			return ErrReconciliationGap
		}
		return err
	}

	if !credited {
		// Redelivery or a late completion on an already-terminal row.
		// Either way the aggregate must not move twice.
		p.log.Warn("completed event on non-pending donation, not credited",
			"session_id", completed.SessionID)
		return nil
	}

	p.log.Info("donation completed",
		"session_id", completed.SessionID,
		"amount", completed.AmountTotal)
	return nil
}

func (p *Platform) applyExpired(ctx context.Context, expired *stripe.SessionExpired) error {
	failed, err := p.store.FailDonation(ctx, expired.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.log.Warn("expired event for unknown session",
				"session_id", expired.SessionID)
			return nil
		}
		return err
	}

	if failed {
		p.log.Info("donation expired", "session_id", expired.SessionID)
	}
	return nil
}
