package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// RideRepository defines the persistence operations for rides.
// Every transition is a single atomic check-and-set scoped to one ride.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// TransitionAccepted binds driverID to a requested ride.
	TransitionAccepted(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error)

	// TransitionStarted moves an accepted ride to ongoing when driver and OTP match.
	TransitionStarted(ctx context.Context, rideID, driverID, otp string, at time.Time) (*domain.Ride, error)

	// TransitionEnded completes an ongoing ride for its bound driver.
	TransitionEnded(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error)

	// TransitionCancelled cancels a ride that has not started.
	TransitionCancelled(ctx context.Context, rideID, reason string, at time.Time) (*domain.Ride, error)

	// ListStaleRequested returns rides still requested that were created before cutoff.
	ListStaleRequested(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error)
}
