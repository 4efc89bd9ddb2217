package core

import (
	"time"
)

// Donation status constants
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

// Delivery method constants
const (
	MethodCash         = "cash"
	MethodHawala       = "hawala"
	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"
)

// Donation amount bounds in minor currency units (cents).
const (
	DonationMin = 100     // $1.00
	DonationMax = 1000000 // $10,000.00
)

// Field length limits shared by checkout and admin validation.
const (
	MaxDonorNameLen   = 100
	MaxMessageLen     = 500
	MaxDisplayNameLen = 100
	MaxProfileCodeLen = 20
	MaxLocationLen    = 100
	MaxBioLen         = 1000
	MaxGoalsLen       = 500
	MaxLocalAmountLen = 100
	MaxNotesLen       = 1000
)

// Config holds platform configuration assembled once at startup
type Config struct {
	SiteURL             string
	StripeSecretKey     string
	StripeWebhookSecret string
	AdminJWTSecret      string
	DBPath              string

	S3Bucket    string
	S3PublicURL string
	AWSRegion   string
}

// Profile represents a verified recipient.
// AmountRaised is in minor currency units and is mutated only by the
// payment event reconciler.
type Profile struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	ProfileID        string    `json:"profile_id"` // public short code, unique
	Location         string    `json:"location,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Goals            string    `json:"goals,omitempty"`
	PhotoURL         string    `json:"photo_url,omitempty"`
	FundingGoal      int64     `json:"funding_goal"` // 0 means no goal
	AmountRaised     int64     `json:"amount_raised"`
	ShowAmountRaised bool      `json:"show_amount_raised"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Donation represents a single donation attempt, created pending at
// checkout time and finalized by the reconciler.
type Donation struct {
	ID                    string    `json:"id"`
	ProfileID             string    `json:"profile_id"`
	Amount                int64     `json:"amount"`
	DonorName             string    `json:"donor_name,omitempty"`
	DonorEmail            string    `json:"donor_email,omitempty"`
	Message               string    `json:"message,omitempty"`
	StripeSessionID       string    `json:"stripe_session_id"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id,omitempty"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
}

// ProfileDisplay is the minimal profile view joined onto donation and
// delivery listings.
type ProfileDisplay struct {
	DisplayName string `json:"display_name"`
	ProfileID   string `json:"profile_id"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// DonationWithProfile is a donation joined with its profile's display fields
type DonationWithProfile struct {
	Donation
	Profile ProfileDisplay `json:"profile"`
}

// Delivery records cash physically delivered to a recipient. Deliveries
// are append-only and independent of the donation ledger.
type Delivery struct {
	ID            string    `json:"id"`
	ProfileID     string    `json:"profile_id"`
	Amount        int64     `json:"amount"`
	LocalAmount   string    `json:"local_amount,omitempty"` // free text, local-currency equivalent
	Method        string    `json:"method"`
	Notes         string    `json:"notes,omitempty"`
	DeliveredAt   time.Time `json:"delivered_at"`
	PhotoProofURL string    `json:"photo_proof_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DeliveryWithProfile is a delivery joined with its profile's display fields
type DeliveryWithProfile struct {
	Delivery
	Profile ProfileDisplay `json:"profile"`
}

// CheckoutRequest is the input to checkout creation
type CheckoutRequest struct {
	ProfileID  string `json:"profileId"`
	Amount     int64  `json:"amount"`
	DonorName  string `json:"donorName,omitempty"`
	DonorEmail string `json:"donorEmail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ProfileInput carries the admin-editable profile fields
type ProfileInput struct {
	DisplayName      string `json:"display_name"`
	ProfileID        string `json:"profile_id"`
	Location         string `json:"location,omitempty"`
	Bio              string `json:"bio,omitempty"`
	Goals            string `json:"goals,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`
	FundingGoal      int64  `json:"funding_goal"`
	ShowAmountRaised *bool  `json:"show_amount_raised,omitempty"`
	IsActive         *bool  `json:"is_active,omitempty"`
}

// ProfilePatch carries a partial profile update; nil fields are untouched.
// AmountRaised is deliberately absent: admin operations never touch it.
type ProfilePatch struct {
	DisplayName      *string `json:"display_name,omitempty"`
	Location         *string `json:"location,omitempty"`
	Bio              *string `json:"bio,omitempty"`
	Goals            *string `json:"goals,omitempty"`
	PhotoURL         *string `json:"photo_url,omitempty"`
	FundingGoal      *int64  `json:"funding_goal,omitempty"`
	ShowAmountRaised *bool   `json:"show_amount_raised,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

// DeliveryInput carries the admin-entered delivery fields
type DeliveryInput struct {
	ProfileID     string `json:"profile_id"`
	Amount        int64  `json:"amount"`
	LocalAmount   string `json:"local_amount,omitempty"`
	Method        string `json:"method,omitempty"`
	Notes         string `json:"notes,omitempty"`
	DeliveredAt   string `json:"delivered_at"` // YYYY-MM-DD
	PhotoProofURL string `json:"photo_proof_url,omitempty"`
}

// Stats is the admin dashboard aggregate view
type Stats struct {
	TotalRaised     int64                 `json:"totalRaised"`
	TotalDelivered  int64                 `json:"totalDelivered"`
	TotalProfiles   int                   `json:"totalProfiles"`
	TotalDonations  int                   `json:"totalDonations"`
	RecentDonations []DonationWithProfile `json:"recentDonations"`
	AllDonations    []DonationWithProfile `json:"allDonations"`
}

// ValidMethod reports whether m is a recognized delivery method
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodHawala, MethodBankTransfer, MethodMobileMoney:
		return true
	}
	return false
}
