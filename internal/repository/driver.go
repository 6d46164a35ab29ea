package repository

import (
	"context"

	"ridehail/internal/domain"
)

// DriverRepository stores driver profiles. Live position and availability
// are kept in the presence store, not here; Status only mirrors the last
// online/offline toggle for listing.
type DriverRepository interface {
	// Create registers a profile keyed by the driver's caller ID and
	// returns ErrAlreadyExists when that ID is taken.
	Create(ctx context.Context, driver *domain.Driver) error

	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetAll lists profiles ordered by ID.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error
}
