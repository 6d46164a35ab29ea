package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const rideColumns = `id, requester_id, driver_id,
	pickup_address, pickup_lat, pickup_lng,
	destination_address, destination_lat, destination_lng,
	vehicle_type, ride_type, seats, gender_preference,
	fare_amount, fare_currency, distance_meters, duration_seconds,
	otp, status, created_at, accepted_at, started_at, ended_at, cancelled_at, cancel_reason`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
// Transitions are conditional UPDATEs carrying the status precondition in the
// WHERE clause, so concurrent callers race on the row lock, not on a read.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// Create persists a new ride. A taken ID is reported as
// repository.ErrAlreadyExists.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RequesterID,
		nullString(ride.DriverID),
		ride.Pickup.Address,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Destination.Address,
		ride.Destination.Lat,
		ride.Destination.Lng,
		ride.VehicleType,
		ride.RideType,
		ride.Seats,
		nullString(string(ride.GenderPreference)),
		ride.Fare.Amount,
		ride.Fare.Currency,
		ride.DistanceMeters,
		ride.DurationSeconds,
		nullString(ride.OTP),
		ride.Status,
		ride.CreatedAt,
		nullTime(ride.AcceptedAt),
		nullTime(ride.StartedAt),
		nullTime(ride.EndedAt),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
	)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// TransitionAccepted binds driverID to a requested ride.
func (r *RideRepository) TransitionAccepted(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1, driver_id = $2, accepted_at = $3
		WHERE id = $4 AND status = $5
		RETURNING ` + rideColumns

	row := r.q.QueryRowContext(ctx, query,
		domain.RideStatusAccepted, driverID, at, rideID, domain.RideStatusRequested)

	return r.applied(ctx, rideID, row, func(ride *domain.Ride) error {
		return ride.Accept(driverID, at)
	})
}

// TransitionStarted moves an accepted ride to ongoing when driver and OTP match.
// The stored code is cleared in the same statement.
func (r *RideRepository) TransitionStarted(ctx context.Context, rideID, driverID, otp string, at time.Time) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1, started_at = $2, otp = NULL
		WHERE id = $3 AND status = $4 AND driver_id = $5 AND otp = $6
		RETURNING ` + rideColumns

	row := r.q.QueryRowContext(ctx, query,
		domain.RideStatusOngoing, at, rideID, domain.RideStatusAccepted, driverID, otp)

	return r.applied(ctx, rideID, row, func(ride *domain.Ride) error {
		return ride.Start(driverID, otp, at)
	})
}

// TransitionEnded completes an ongoing ride for its bound driver.
func (r *RideRepository) TransitionEnded(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1, ended_at = $2
		WHERE id = $3 AND status = $4 AND driver_id = $5
		RETURNING ` + rideColumns

	row := r.q.QueryRowContext(ctx, query,
		domain.RideStatusCompleted, at, rideID, domain.RideStatusOngoing, driverID)

	return r.applied(ctx, rideID, row, func(ride *domain.Ride) error {
		return ride.End(driverID, at)
	})
}

// TransitionCancelled cancels a ride that has not started.
func (r *RideRepository) TransitionCancelled(ctx context.Context, rideID, reason string, at time.Time) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $1, cancelled_at = $2, cancel_reason = $3
		WHERE id = $4 AND status IN ($5, $6)
		RETURNING ` + rideColumns

	row := r.q.QueryRowContext(ctx, query,
		domain.RideStatusCancelled, at, nullString(reason), rideID,
		domain.RideStatusRequested, domain.RideStatusAccepted)

	return r.applied(ctx, rideID, row, func(ride *domain.Ride) error {
		return ride.Cancel(reason, at)
	})
}

// ListStaleRequested returns rides still requested that were created before cutoff.
func (r *RideRepository) ListStaleRequested(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, domain.RideStatusRequested, cutoff, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// limitArg binds a non-positive limit as NULL, which Postgres treats as LIMIT ALL.
func limitArg(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}

// applied returns the updated row, or explains why the conditional update
// matched nothing by replaying the domain guard against the current row.
func (r *RideRepository) applied(ctx context.Context, rideID string, row *sql.Row, guard func(*domain.Ride) error) (*domain.Ride, error) {
	ride, err := scanRide(row)
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	current, err := r.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := guard(current); err != nil {
		return nil, err
	}

	// The row moved between the update and the re-read.
	return nil, domain.ErrInvalidRideState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, genderPreference, otp, cancelReason sql.NullString
	var acceptedAt, startedAt, endedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RequesterID,
		&driverID,
		&ride.Pickup.Address,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Destination.Address,
		&ride.Destination.Lat,
		&ride.Destination.Lng,
		&ride.VehicleType,
		&ride.RideType,
		&ride.Seats,
		&genderPreference,
		&ride.Fare.Amount,
		&ride.Fare.Currency,
		&ride.DistanceMeters,
		&ride.DurationSeconds,
		&otp,
		&ride.Status,
		&ride.CreatedAt,
		&acceptedAt,
		&startedAt,
		&endedAt,
		&cancelledAt,
		&cancelReason,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.GenderPreference = domain.GenderPreference(genderPreference.String)
	ride.OTP = otp.String
	ride.CancelReason = cancelReason.String
	if acceptedAt.Valid {
		ride.AcceptedAt = acceptedAt.Time
	}
	if startedAt.Valid {
		ride.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		ride.EndedAt = endedAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}

	return &ride, nil
}

// Ensure RideRepository implements repository.RideRepository.
var _ repository.RideRepository = (*RideRepository)(nil)
