package core

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/diasporabridge/bridge/internal/stripe"
)

// CreateCheckout validates the donation request, creates a hosted payment
// session for it, and records a pending donation keyed by the session id.
// The session is created before the row is persisted so a processor
// failure leaves no orphaned donation behind.
func (p *Platform) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := validateCheckout(req); err != nil {
		return "", err
	}

	profile, err := p.store.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return "", err
	}
	if !profile.IsActive {
		return "", fmt.Errorf("profile %s: %w", req.ProfileID, ErrNotFound)
	}

	session, err := p.payments.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		Currency:    "usd",
		ProductName: "Donation to " + profile.DisplayName,
		Description: fmt.Sprintf("Direct donation for %s (#%s). 100%% hand-delivered.",
			profile.DisplayName, profile.ProfileID),
		UnitAmount:    req.Amount,
		SuccessURL:    p.config.SiteURL + "/thank-you?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     p.config.SiteURL + "/donate/" + profile.ProfileID,
		CustomerEmail: req.DonorEmail,
		Metadata: map[string]string{
			"profile_id":  profile.ID,
			"donor_name":  req.DonorName,
			"donor_email": req.DonorEmail,
			"message":     req.Message,
		},
	})
	if err != nil {
		return "", &ExternalServiceError{Service: "stripe checkout", Err: err}
	}

	donation := &Donation{
		ID:              GenerateID(),
		ProfileID:       profile.ID,
		Amount:          req.Amount,
		DonorName:       req.DonorName,
		DonorEmail:      req.DonorEmail,
		Message:         req.Message,
		StripeSessionID: session.ID,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := p.store.CreateDonation(ctx, donation); err != nil {
		// The session exists but the row does not. The webhook handler
		// treats unknown sessions as no-ops, so the worst case is an
		// uncredited payment that shows up in Stripe's dashboard.
		p.log.Error("pending donation not persisted after session creation",
			"session_id", session.ID, "profile_id", profile.ID, "error", err)
		return "", fmt.Errorf("failed to record pending donation: %w", err)
	}

	return session.URL, nil
}

func validateCheckout(req CheckoutRequest) error {
	if req.ProfileID == "" {
		return invalidf("profileId", "required")
	}
	if req.Amount < DonationMin || req.Amount > DonationMax {
		return invalidf("amount", "must be between %d and %d cents", DonationMin, DonationMax)
	}
	if len(req.DonorName) > MaxDonorNameLen {
		return invalidf("donorName", "exceeds %d characters", MaxDonorNameLen)
	}
	if req.DonorEmail != "" {
		if _, err := mail.ParseAddress(req.DonorEmail); err != nil {
			return invalidf("donorEmail", "not a valid email address")
		}
	}
	if len(req.Message) > MaxMessageLen {
		return invalidf("message", "exceeds %d characters", MaxMessageLen)
	}
	return nil
}
