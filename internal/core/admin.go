package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var errNoUploader = errors.New("no uploader configured")

var profileCodeRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Photo upload rules, matching the public site's expectations.
const maxPhotoSize = 5 << 20 // 5MB

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/avif": true,
}

// CreateProfile creates a new recipient profile with a zero aggregate.
// The public profile code is immutable afterwards and must be unique;
// storage reports a duplicate as ErrConflict.
func (p *Platform) CreateProfile(ctx context.Context, input ProfileInput) (*Profile, error) {
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	profile := &Profile{
		ID:               GenerateID(),
		DisplayName:      input.DisplayName,
		ProfileID:        input.ProfileID,
		Location:         input.Location,
		Bio:              input.Bio,
		Goals:            input.Goals,
		PhotoURL:         input.PhotoURL,
		FundingGoal:      input.FundingGoal,
		AmountRaised:     0,
		ShowAmountRaised: boolOr(input.ShowAmountRaised, true),
		IsActive:         boolOr(input.IsActive, true),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := p.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile replaces the editable fields of an existing profile.
// ProfileID and AmountRaised are never written here.
func (p *Platform) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*Profile, error) {
	if err := validateProfileFields(input); err != nil {
		return nil, err
	}

	profile, err := p.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = input.DisplayName
	profile.Location = input.Location
	profile.Bio = input.Bio
	profile.Goals = input.Goals
	profile.PhotoURL = input.PhotoURL
	profile.FundingGoal = input.FundingGoal
	profile.ShowAmountRaised = boolOr(input.ShowAmountRaised, true)
	profile.IsActive = boolOr(input.IsActive, true)
	profile.UpdatedAt = time.Now().UTC()

	if err := p.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// PatchProfile applies a partial update; absent fields keep their value.
func (p *Platform) PatchProfile(ctx context.Context, id string, patch ProfilePatch) (*Profile, error) {
	profile, err := p.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		if *patch.DisplayName == "" || len(*patch.DisplayName) > MaxDisplayNameLen {
			return nil, invalidf("display_name", "must be 1-%d characters", MaxDisplayNameLen)
		}
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Location != nil {
		profile.Location = *patch.Location
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.Goals != nil {
		profile.Goals = *patch.Goals
	}
	if patch.PhotoURL != nil {
		profile.PhotoURL = *patch.PhotoURL
	}
	if patch.FundingGoal != nil {
		if *patch.FundingGoal < 0 {
			return nil, invalidf("funding_goal", "must be non-negative")
		}
		profile.FundingGoal = *patch.FundingGoal
	}
	if patch.ShowAmountRaised != nil {
		profile.ShowAmountRaised = *patch.ShowAmountRaised
	}
	if patch.IsActive != nil {
		profile.IsActive = *patch.IsActive
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := p.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile loads a profile by internal id
func (p *Platform) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return p.store.GetProfile(ctx, id)
}

// ListProfiles lists every profile, newest first (admin view)
func (p *Platform) ListProfiles(ctx context.Context) ([]Profile, error) {
	return p.store.ListProfiles(ctx, false)
}

// ListPublicProfiles lists active profiles for the public site
func (p *Platform) ListPublicProfiles(ctx context.Context) ([]Profile, error) {
	return p.store.ListProfiles(ctx, true)
}

// GetPublicProfile loads an active profile by its public short code
func (p *Platform) GetPublicProfile(ctx context.Context, code string) (*Profile, error) {
	profile, err := p.store.GetProfileByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, fmt.Errorf("profile %s: %w", code, ErrNotFound)
	}
	return profile, nil
}

// CreateDelivery records a hand-delivery of cash against a profile.
// Deliveries never touch amount_raised; delivered totals are reported
// separately.
func (p *Platform) CreateDelivery(ctx context.Context, input DeliveryInput) (*Delivery, error) {
	if input.ProfileID == "" {
		return nil, invalidf("profile_id", "required")
	}
	if input.Amount < 1 {
		return nil, invalidf("amount", "must be at least 1")
	}
	if len(input.LocalAmount) > MaxLocalAmountLen {
		return nil, invalidf("local_amount", "exceeds %d characters", MaxLocalAmountLen)
	}
	method := input.Method
	if method == "" {
		method = MethodCash
	}
	if !ValidMethod(method) {
		return nil, invalidf("method", "must be one of cash, hawala, bank_transfer, mobile_money")
	}
	if len(input.Notes) > MaxNotesLen {
		return nil, invalidf("notes", "exceeds %d characters", MaxNotesLen)
	}
	deliveredAt, err := time.Parse("2006-01-02", input.DeliveredAt)
	if err != nil {
		return nil, invalidf("delivered_at", "must be a YYYY-MM-DD date")
	}

	// Delivery rows reference the profile; verify it exists up front so a
	// bad id surfaces as a 404 rather than a constraint error.
	if _, err := p.store.GetProfile(ctx, input.ProfileID); err != nil {
		return nil, err
	}

	delivery := &Delivery{
		ID:            GenerateID(),
		ProfileID:     input.ProfileID,
		Amount:        input.Amount,
		LocalAmount:   input.LocalAmount,
		Method:        method,
		Notes:         input.Notes,
		DeliveredAt:   deliveredAt,
		PhotoProofURL: input.PhotoProofURL,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.store.CreateDelivery(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// ListDeliveries lists deliveries with profile display fields, most
// recently delivered first
func (p *Platform) ListDeliveries(ctx context.Context) ([]DeliveryWithProfile, error) {
	return p.store.ListDeliveries(ctx)
}

// UploadPhoto stores a photo in object storage and returns its public URL
func (p *Platform) UploadPhoto(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", invalidf("file", "required")
	}
	if len(data) > maxPhotoSize {
		return "", invalidf("file", "exceeds maximum size of 5MB")
	}
	if !allowedPhotoTypes[contentType] {
		return "", invalidf("file", "must be JPEG, PNG, WebP, or AVIF")
	}
	if p.photos == nil {
		return "", &ExternalServiceError{Service: "photo storage", Err: errNoUploader}
	}

	url, err := p.photos.Upload(ctx, data, contentType)
	if err != nil {
		return "", &ExternalServiceError{Service: "photo storage", Err: err}
	}
	return url, nil
}

func validateProfileInput(input ProfileInput) error {
	if input.ProfileID == "" || len(input.ProfileID) > MaxProfileCodeLen {
		return invalidf("profile_id", "must be 1-%d characters", MaxProfileCodeLen)
	}
	if !profileCodeRe.MatchString(input.ProfileID) {
		return invalidf("profile_id", "only letters, numbers, and hyphens")
	}
	return validateProfileFields(input)
}

func validateProfileFields(input ProfileInput) error {
	if input.DisplayName == "" || len(input.DisplayName) > MaxDisplayNameLen {
		return invalidf("display_name", "must be 1-%d characters", MaxDisplayNameLen)
	}
	if len(input.Location) > MaxLocationLen {
		return invalidf("location", "exceeds %d characters", MaxLocationLen)
	}
	if len(input.Bio) > MaxBioLen {
		return invalidf("bio", "exceeds %d characters", MaxBioLen)
	}
	if len(input.Goals) > MaxGoalsLen {
		return invalidf("goals", "exceeds %d characters", MaxGoalsLen)
	}
	if input.FundingGoal < 0 {
		return invalidf("funding_goal", "must be non-negative")
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
