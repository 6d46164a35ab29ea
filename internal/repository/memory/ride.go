// Package memory holds in-process repositories for single-instance
// deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository keeps rides in a map guarded by one mutex. Each transition
// runs the domain guard and the write under the same lock.
type RideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride
}

// NewRideRepository creates an empty in-memory ride repository.
func NewRideRepository() *RideRepository {
	return &RideRepository{rides: make(map[string]*domain.Ride)}
}

func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rides[ride.ID]; exists {
		return repository.ErrAlreadyExists
	}
	stored := *ride
	r.rides[ride.ID] = &stored
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ride
	return &cp, nil
}

func (r *RideRepository) TransitionAccepted(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	return r.transition(rideID, func(ride *domain.Ride) error {
		return ride.Accept(driverID, at)
	})
}

func (r *RideRepository) TransitionStarted(ctx context.Context, rideID, driverID, otp string, at time.Time) (*domain.Ride, error) {
	return r.transition(rideID, func(ride *domain.Ride) error {
		return ride.Start(driverID, otp, at)
	})
}

func (r *RideRepository) TransitionEnded(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	return r.transition(rideID, func(ride *domain.Ride) error {
		return ride.End(driverID, at)
	})
}

func (r *RideRepository) TransitionCancelled(ctx context.Context, rideID, reason string, at time.Time) (*domain.Ride, error) {
	return r.transition(rideID, func(ride *domain.Ride) error {
		return ride.Cancel(reason, at)
	})
}

func (r *RideRepository) ListStaleRequested(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []*domain.Ride
	for _, ride := range r.rides {
		if ride.Status == domain.RideStatusRequested && ride.CreatedAt.Before(cutoff) {
			cp := *ride
			stale = append(stale, &cp)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CreatedAt.Before(stale[j].CreatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// transition applies fn to a working copy and commits it only if fn succeeds.
func (r *RideRepository) transition(rideID string, fn func(*domain.Ride) error) (*domain.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	next := *ride
	if err := fn(&next); err != nil {
		return nil, err
	}
	r.rides[rideID] = &next

	cp := next
	return &cp, nil
}

var _ repository.RideRepository = (*RideRepository)(nil)
