package redis

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	SetPresence(ctx context.Context, p domain.DriverPresence) error
	FindAvailable(ctx context.Context, center domain.Location, radiusMeters float64, filter domain.CandidateFilter) ([]domain.Candidate, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDispatchLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseDispatchLock(ctx context.Context, rideID string) error
}

// RideCacheInterface defines the read-through ride cache.
type RideCacheInterface interface {
	GetRide(ctx context.Context, rideID string) (*domain.Ride, error)
	// AddRide populates an empty entry and never overwrites one.
	AddRide(ctx context.Context, ride *domain.Ride) error
	// SetRide writes a committed ride unless the entry is already further
	// along the lifecycle.
	SetRide(ctx context.Context, ride *domain.Ride) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// DriverCacheInterface defines the driver profile cache.
type DriverCacheInterface interface {
	GetDriver(ctx context.Context, driverID string) (*CachedDriver, error)
	SetDriver(ctx context.Context, driver *CachedDriver) error
	InvalidateDriver(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ RideCacheInterface     = (*CacheStore)(nil)
	_ DriverCacheInterface   = (*CacheStore)(nil)
)
