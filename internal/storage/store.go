// Package storage provides the SQLite persistence layer for profiles,
// donations, and deliveries.
//
// Reconciliation rationale
// ------------------------
// The payment processor delivers webhook events at least once, so the
// write that credits a profile's amount_raised must be safe to replay.
// CompleteDonation runs a guarded status transition (pending rows only)
// and the aggregate increment inside one transaction; a redelivered event
// matches zero rows on the guard and the increment is skipped. The guard
// also freezes terminal rows: a late completion after an expiry cannot
// move the aggregate.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/diasporabridge/bridge/internal/core"
)

// Store handles SQLite storage for the platform
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations
func New(dbPath string) (*Store, error) {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Migrate creates the necessary tables
func (s *Store) Migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			profile_code TEXT NOT NULL UNIQUE,
			location TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			goals TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			funding_goal INTEGER NOT NULL DEFAULT 0,
			amount_raised INTEGER NOT NULL DEFAULT 0 CHECK (amount_raised >= 0),
			show_amount_raised INTEGER NOT NULL DEFAULT 1,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS donations (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			donor_name TEXT NOT NULL DEFAULT '',
			donor_email TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			stripe_session_id TEXT NOT NULL UNIQUE,
			stripe_payment_intent_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		);

		CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			amount INTEGER NOT NULL CHECK (amount >= 1),
			local_amount TEXT NOT NULL DEFAULT '',
			method TEXT NOT NULL DEFAULT 'cash',
			notes TEXT NOT NULL DEFAULT '',
			delivered_at DATETIME NOT NULL,
			photo_proof_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		);

		CREATE INDEX IF NOT EXISTS idx_donations_profile ON donations(profile_id);
		CREATE INDEX IF NOT EXISTS idx_donations_status ON donations(status);
		CREATE INDEX IF NOT EXISTS idx_deliveries_profile ON deliveries(profile_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProfile inserts a new profile. A duplicate public code is
// reported as core.ErrConflict.
func (s *Store) CreateProfile(ctx context.Context, p *core.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, profile_code, location, bio, goals,
			photo_url, funding_goal, amount_raised, show_amount_raised, is_active,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.DisplayName, p.ProfileID, p.Location, p.Bio, p.Goals,
		p.PhotoURL, p.FundingGoal, p.AmountRaised, p.ShowAmountRaised, p.IsActive,
		p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile code %s: %w", p.ProfileID, core.ErrConflict)
	}
	return err
}

// GetProfile retrieves a profile by internal id
func (s *Store) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		selectProfile+` WHERE id = ?`, id), id)
}

// GetProfileByCode retrieves a profile by its public short code
func (s *Store) GetProfileByCode(ctx context.Context, code string) (*core.Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		selectProfile+` WHERE profile_code = ?`, code), code)
}

const selectProfile = `
	SELECT id, display_name, profile_code, location, bio, goals, photo_url,
		funding_goal, amount_raised, show_amount_raised, is_active,
		created_at, updated_at
	FROM profiles`

func (s *Store) scanProfile(row *sql.Row, ref string) (*core.Profile, error) {
	var p core.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.ProfileID, &p.Location, &p.Bio,
		&p.Goals, &p.PhotoURL, &p.FundingGoal, &p.AmountRaised,
		&p.ShowAmountRaised, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", ref, core.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// ListProfiles returns profiles newest first, optionally active only
func (s *Store) ListProfiles(ctx context.Context, activeOnly bool) ([]core.Profile, error) {
	query := selectProfile
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []core.Profile{}
	for rows.Next() {
		var p core.Profile
		err := rows.Scan(&p.ID, &p.DisplayName, &p.ProfileID, &p.Location, &p.Bio,
			&p.Goals, &p.PhotoURL, &p.FundingGoal, &p.AmountRaised,
			&p.ShowAmountRaised, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfile writes the editable fields of an existing profile.
// amount_raised is intentionally not written here; only the reconciler
// moves it.
func (s *Store) UpdateProfile(ctx context.Context, p *core.Profile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = ?, location = ?, bio = ?, goals = ?, photo_url = ?,
			funding_goal = ?, show_amount_raised = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, p.DisplayName, p.Location, p.Bio, p.Goals, p.PhotoURL,
		p.FundingGoal, p.ShowAmountRaised, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, core.ErrNotFound)
	}
	return nil
}

// CountActiveProfiles returns the number of active profiles
func (s *Store) CountActiveProfiles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profiles WHERE is_active = 1`).Scan(&count)
	return count, err
}

// CreateDonation inserts a pending donation row
func (s *Store) CreateDonation(ctx context.Context, d *core.Donation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donations (id, profile_id, amount, donor_name, donor_email,
			message, stripe_session_id, stripe_payment_intent_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ProfileID, d.Amount, d.DonorName, d.DonorEmail,
		d.Message, d.StripeSessionID, d.StripePaymentIntentID, d.Status, d.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("session %s: %w", d.StripeSessionID, core.ErrConflict)
	}
	return err
}

// GetDonationBySession retrieves a donation by its checkout session id
func (s *Store) GetDonationBySession(ctx context.Context, sessionID string) (*core.Donation, error) {
	var d core.Donation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, amount, donor_name, donor_email, message,
			stripe_session_id, stripe_payment_intent_id, status, created_at
		FROM donations WHERE stripe_session_id = ?
	`, sessionID).Scan(&d.ID, &d.ProfileID, &d.Amount, &d.DonorName, &d.DonorEmail,
		&d.Message, &d.StripeSessionID, &d.StripePaymentIntentID, &d.Status, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
		}
		return nil, err
	}
	return &d, nil
}

// CompleteDonation transitions the donation for sessionID from pending to
// completed and credits the owning profile, as one transaction. The
// returned bool reports whether the credit was applied: false means the
// row was already terminal and the aggregate did not move.
//
// If the status transition lands but the profile row cannot be credited,
// the transition is still committed and core.ErrReconciliationGap is
// returned: the payment settled, so the donation must read completed, and
// the missing credit needs operator follow-up rather than a webhook retry
// loop.
func (s *Store) CompleteDonation(ctx context.Context, sessionID, paymentIntentID string, settledAmount int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE donations
		SET status = ?, stripe_payment_intent_id = ?
		WHERE stripe_session_id = ? AND status = ?
	`, core.StatusCompleted, paymentIntentID, sessionID, core.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if n == 0 {
		// Either the session is unknown or the row is already terminal.
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM donations WHERE stripe_session_id = ?`,
			sessionID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
		}
		if err != nil {
			return false, err
		}
		return false, tx.Commit()
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE profiles
		SET amount_raised = amount_raised + ?, updated_at = ?
		WHERE id = (SELECT profile_id FROM donations WHERE stripe_session_id = ?)
	`, settledAmount, time.Now().UTC(), sessionID)
	if err != nil {
		return false, err
	}
	credited, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	if credited == 0 {
		return false, fmt.Errorf("session %s: %w", sessionID, core.ErrReconciliationGap)
	}
	return true, nil
}

// FailDonation transitions the donation for sessionID from pending to
// failed. Terminal rows are left untouched and report false; an unknown
// session reports core.ErrNotFound.
func (s *Store) FailDonation(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE donations SET status = ?
		WHERE stripe_session_id = ? AND status = ?
	`, core.StatusFailed, sessionID, core.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM donations WHERE stripe_session_id = ?`,
		sessionID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("session %s: %w", sessionID, core.ErrNotFound)
	}
	return false, err
}

// ListDonations returns all donations newest first, joined with the
// owning profile's display fields
func (s *Store) ListDonations(ctx context.Context) ([]core.DonationWithProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.profile_id, d.amount, d.donor_name, d.donor_email,
			d.message, d.stripe_session_id, d.stripe_payment_intent_id,
			d.status, d.created_at,
			p.display_name, p.profile_code, p.photo_url
		FROM donations d
		JOIN profiles p ON p.id = d.profile_id
		ORDER BY d.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := []core.DonationWithProfile{}
	for rows.Next() {
		var d core.DonationWithProfile
		err := rows.Scan(&d.ID, &d.Donation.ProfileID, &d.Amount, &d.DonorName,
			&d.DonorEmail, &d.Message, &d.StripeSessionID, &d.StripePaymentIntentID,
			&d.Status, &d.CreatedAt,
			&d.Profile.DisplayName, &d.Profile.ProfileID, &d.Profile.PhotoURL)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// DonationTotals returns the sum and count of completed donations
func (s *Store) DonationTotals(ctx context.Context) (int64, int, error) {
	var total int64
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM donations WHERE status = ?
	`, core.StatusCompleted).Scan(&total, &count)
	return total, count, err
}

// CreateDelivery inserts a delivery row. The referenced profile must
// exist; the foreign key reports a missing one.
func (s *Store) CreateDelivery(ctx context.Context, d *core.Delivery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, profile_id, amount, local_amount, method,
			notes, delivered_at, photo_proof_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ProfileID, d.Amount, d.LocalAmount, d.Method,
		d.Notes, d.DeliveredAt, d.PhotoProofURL, d.CreatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("profile %s: %w", d.ProfileID, core.ErrNotFound)
	}
	return err
}

// ListDeliveries returns deliveries most recently delivered first, joined
// with the owning profile's display fields
func (s *Store) ListDeliveries(ctx context.Context) ([]core.DeliveryWithProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.profile_id, d.amount, d.local_amount, d.method,
			d.notes, d.delivered_at, d.photo_proof_url, d.created_at,
			p.display_name, p.profile_code
		FROM deliveries d
		JOIN profiles p ON p.id = d.profile_id
		ORDER BY d.delivered_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := []core.DeliveryWithProfile{}
	for rows.Next() {
		var d core.DeliveryWithProfile
		err := rows.Scan(&d.ID, &d.Delivery.ProfileID, &d.Amount, &d.LocalAmount,
			&d.Method, &d.Notes, &d.DeliveredAt, &d.PhotoProofURL, &d.CreatedAt,
			&d.Profile.DisplayName, &d.Profile.ProfileID)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// DeliveredTotal returns the sum of all delivery amounts
func (s *Store) DeliveredTotal(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM deliveries`).Scan(&total)
	return total, err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
