package memory

import (
	"context"
	"sort"
	"sync"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverRepository is an in-memory driver profile store.
type DriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

// NewDriverRepository creates an empty in-memory driver repository.
func NewDriverRepository() *DriverRepository {
	return &DriverRepository{drivers: make(map[string]*domain.Driver)}
}

func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.drivers[driver.ID]; taken {
		return repository.ErrAlreadyExists
	}
	cp := *driver
	r.drivers[driver.ID] = &cp
	return nil
}

func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *driver
	return &cp, nil
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	drivers := make([]*domain.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		cp := *d
		drivers = append(drivers, &cp)
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

var _ repository.DriverRepository = (*DriverRepository)(nil)
