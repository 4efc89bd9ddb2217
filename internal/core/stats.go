package core

import (
	"context"
	"fmt"
)

const recentDonationLimit = 10

// GetStats computes the admin dashboard aggregates by scanning the
// ledgers. Empty ledgers report zeros.
func (p *Platform) GetStats(ctx context.Context) (*Stats, error) {
	totalRaised, completed, err := p.store.DonationTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total donations: %w", err)
	}

	totalDelivered, err := p.store.DeliveredTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to total deliveries: %w", err)
	}

	profiles, err := p.store.CountActiveProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles: %w", err)
	}

	donations, err := p.store.ListDonations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	if donations == nil {
		donations = []DonationWithProfile{}
	}

	recent := donations
	if len(recent) > recentDonationLimit {
		recent = recent[:recentDonationLimit]
	}

	return &Stats{
		TotalRaised:     totalRaised,
		TotalDelivered:  totalDelivered,
		TotalProfiles:   profiles,
		TotalDonations:  completed,
		RecentDonations: recent,
		AllDonations:    donations,
	}, nil
}
