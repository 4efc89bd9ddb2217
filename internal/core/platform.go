package core

import (
	"log/slog"
)

// Platform orchestrates the donation lifecycle: checkout initiation,
// payment event reconciliation, delivery tracking, and reporting.
type Platform struct {
	config   Config
	store    Storage
	payments PaymentClient
	photos   PhotoUploader
	log      *slog.Logger
}

// PlatformDeps holds dependencies for constructing a Platform.
type PlatformDeps struct {
	Config   Config
	Store    Storage
	Payments PaymentClient
	Photos   PhotoUploader
	Logger   *slog.Logger
}

// NewPlatform creates a platform with explicit dependencies.
func NewPlatform(deps PlatformDeps) *Platform {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{
		config:   deps.Config,
		store:    deps.Store,
		payments: deps.Payments,
		photos:   deps.Photos,
		log:      logger,
	}
}

// Close releases storage resources
func (p *Platform) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
