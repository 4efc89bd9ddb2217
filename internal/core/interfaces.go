package core

import (
	"context"

	"github.com/diasporabridge/bridge/internal/stripe"
)

// Storage persists profiles, donations, and deliveries.
// Implementations: storage.Store (SQLite)
type Storage interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByCode(ctx context.Context, code string) (*Profile, error)
	ListProfiles(ctx context.Context, activeOnly bool) ([]Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
	CountActiveProfiles(ctx context.Context) (int, error)

	CreateDonation(ctx context.Context, d *Donation) error
	GetDonationBySession(ctx context.Context, sessionID string) (*Donation, error)
	ListDonations(ctx context.Context) ([]DonationWithProfile, error)
	DonationTotals(ctx context.Context) (totalRaised int64, completed int, err error)

	// CompleteDonation transitions the donation for sessionID from pending
	// to completed and credits the owning profile's amount_raised by
	// settledAmount, all in one transaction. It reports whether the credit
	// was applied; a donation already in a terminal state is left untouched
	// and reports false. ErrNotFound when no donation has the session id.
	CompleteDonation(ctx context.Context, sessionID, paymentIntentID string, settledAmount int64) (credited bool, err error)

	// FailDonation transitions pending -> failed. Terminal rows are left
	// untouched and report false.
	FailDonation(ctx context.Context, sessionID string) (failed bool, err error)

	CreateDelivery(ctx context.Context, d *Delivery) error
	ListDeliveries(ctx context.Context) ([]DeliveryWithProfile, error)
	DeliveredTotal(ctx context.Context) (int64, error)

	Close() error
}

// PaymentClient creates hosted checkout sessions.
// Implementations: stripe.Client
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (stripe.CheckoutSession, error)
}

// PhotoUploader stores an uploaded photo and returns its public URL.
// Implementations: photos.S3Uploader
type PhotoUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (url string, err error)
}

// Principal identifies an authenticated administrator
type Principal struct {
	Subject string
}

// AuthContext answers "is this credential an authenticated administrator".
// Implementations: web.JWTAuth
type AuthContext interface {
	Authorize(ctx context.Context, credential string) (*Principal, error)
}
