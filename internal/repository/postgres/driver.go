package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

const driverColumns = `id, COALESCE(name, ''), COALESCE(phone, ''), status, vehicle_type, COALESCE(gender, '')`

// DriverRepository keeps driver profiles in the drivers table.
type DriverRepository struct {
	q Querier
}

func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// Create inserts a profile. A taken ID or phone number is reported as
// repository.ErrAlreadyExists.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO drivers (id, name, phone, status, vehicle_type, gender) VALUES ($1, $2, $3, $4, $5, $6)`,
		driver.ID, nullString(driver.Name), nullString(driver.Phone), driver.Status, driver.VehicleType, nullString(driver.Gender))
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id)
	driver, err := scanDriver(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return driver, err
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

// UpdateStatus records the online/offline toggle. Unknown IDs return
// repository.ErrNotFound.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var d domain.Driver
	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.VehicleType, &d.Gender); err != nil {
		return nil, err
	}
	return &d, nil
}

var _ repository.DriverRepository = (*DriverRepository)(nil)
