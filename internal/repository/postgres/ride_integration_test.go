//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// Run with: TEST_DATABASE_DSN=postgres://... go test -tags integration ./internal/repository/postgres/

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createRide(t *testing.T, repo *RideRepository, mutate func(*domain.Ride)) *domain.Ride {
	t.Helper()
	ride := &domain.Ride{
		ID:          uuid.NewString(),
		RequesterID: "rider-1",
		Pickup:      domain.Location{Address: "pickup", Lat: 12.97, Lng: 77.59},
		Destination: domain.Location{Address: "destination", Lat: 12.93, Lng: 77.62},
		VehicleType: domain.VehicleCar,
		RideType:    domain.RideTypeSolo,
		Seats:       1,
		Fare:        domain.Money{Amount: 25000, Currency: "INR"},
		OTP:         "4821",
		Status:      domain.RideStatusRequested,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	if mutate != nil {
		mutate(ride)
	}
	if err := repo.Create(context.Background(), ride); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	t.Cleanup(func() {
		_, _ = repo.q.ExecContext(context.Background(), `DELETE FROM rides WHERE id = $1`, ride.ID)
	})
	return ride
}

// ============================================
// Conditional transitions
// ============================================

func TestRideRepository_ConcurrentAcceptSingleWinner(t *testing.T) {
	repo := NewRideRepository(openTestDB(t))
	ride := createRide(t, repo, nil)
	ctx := context.Background()

	const drivers = 50
	var wins, conflicts, other int32
	var winner atomic.Value
	var wg sync.WaitGroup
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driverID := fmt.Sprintf("driver-%d", i)
			_, err := repo.TransitionAccepted(ctx, ride.ID, driverID, time.Now())
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
				winner.Store(driverID)
			case errors.Is(err, domain.ErrAlreadyAccepted):
				atomic.AddInt32(&conflicts, 1)
			default:
				atomic.AddInt32(&other, 1)
				t.Errorf("driver %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != drivers-1 || other != 0 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d winners, %d conflicts, %d other", drivers-1, wins, conflicts, other)
	}

	stored, err := repo.GetByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.RideStatusAccepted || stored.DriverID != winner.Load().(string) {
		t.Errorf("expected ride accepted by %v, got %s by %q", winner.Load(), stored.Status, stored.DriverID)
	}
}

func TestRideRepository_StartRejectionsLeaveRowUnchanged(t *testing.T) {
	repo := NewRideRepository(openTestDB(t))
	ctx := context.Background()

	accepted := createRide(t, repo, func(r *domain.Ride) {
		r.Status = domain.RideStatusAccepted
		r.DriverID = "driver-1"
		r.AcceptedAt = r.CreatedAt
	})
	requested := createRide(t, repo, nil)

	tests := []struct {
		name     string
		rideID   string
		driverID string
		otp      string
		wantErr  error
	}{
		{"wrong otp", accepted.ID, "driver-1", "0000", domain.ErrInvalidOTP},
		{"wrong driver", accepted.ID, "driver-2", "4821", domain.ErrDriverMismatch},
		{"not yet accepted", requested.ID, "driver-1", "4821", domain.ErrInvalidRideState},
		{"unknown ride", uuid.NewString(), "driver-1", "4821", repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.TransitionStarted(ctx, tt.rideID, tt.driverID, tt.otp, time.Now())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	stored, err := repo.GetByID(ctx, accepted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.RideStatusAccepted || stored.OTP != "4821" || !stored.StartedAt.IsZero() {
		t.Errorf("rejected starts must not touch the row, got status=%s otp=%q started=%v", stored.Status, stored.OTP, stored.StartedAt)
	}
}

func TestRideRepository_FullLifecycle(t *testing.T) {
	repo := NewRideRepository(openTestDB(t))
	ride := createRide(t, repo, nil)
	ctx := context.Background()

	if _, err := repo.TransitionAccepted(ctx, ride.ID, "driver-1", time.Now()); err != nil {
		t.Fatalf("accept: %v", err)
	}
	started, err := repo.TransitionStarted(ctx, ride.ID, "driver-1", "4821", time.Now())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.OTP != "" {
		t.Errorf("start should consume the otp, still have %q", started.OTP)
	}

	if _, err := repo.TransitionEnded(ctx, ride.ID, "driver-2", time.Now()); !errors.Is(err, domain.ErrDriverMismatch) {
		t.Errorf("end by another driver: expected ErrDriverMismatch, got %v", err)
	}
	ended, err := repo.TransitionEnded(ctx, ride.ID, "driver-1", time.Now())
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != domain.RideStatusCompleted || ended.EndedAt.IsZero() {
		t.Errorf("expected completed ride with end time, got %s at %v", ended.Status, ended.EndedAt)
	}

	if _, err := repo.TransitionEnded(ctx, ride.ID, "driver-1", time.Now()); !errors.Is(err, domain.ErrInvalidRideState) {
		t.Errorf("second end: expected ErrInvalidRideState, got %v", err)
	}
	if _, err := repo.TransitionCancelled(ctx, ride.ID, "changed mind", time.Now()); !errors.Is(err, domain.ErrInvalidRideState) {
		t.Errorf("cancel after completion: expected ErrInvalidRideState, got %v", err)
	}
}

func TestRideRepository_CreateDuplicate(t *testing.T) {
	repo := NewRideRepository(openTestDB(t))
	ride := createRide(t, repo, nil)

	if err := repo.Create(context.Background(), ride); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

// ============================================
// Stale scan
// ============================================

func TestRideRepository_ListStaleRequestedLimit(t *testing.T) {
	repo := NewRideRepository(openTestDB(t))
	ctx := context.Background()

	// Far in the past so rides left by other tests sort after these.
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		ride := createRide(t, repo, func(r *domain.Ride) {
			r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
		ids = append(ids, ride.ID)
	}
	createRide(t, repo, func(r *domain.Ride) {
		r.CreatedAt = base
		r.Status = domain.RideStatusCancelled
		r.CancelledAt = base
	})

	cutoff := base.Add(time.Hour)

	limited, err := repo.ListStaleRequested(ctx, cutoff, 2)
	if err != nil {
		t.Fatalf("limited scan: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != ids[0] || limited[1].ID != ids[1] {
		t.Errorf("expected the two oldest requested rides, got %d rides", len(limited))
	}

	for _, limit := range []int{0, -1} {
		all, err := repo.ListStaleRequested(ctx, cutoff, limit)
		if err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		if len(all) != len(ids) {
			t.Errorf("limit %d: expected every stale ride (%d), got %d", limit, len(ids), len(all))
		}
	}
}
