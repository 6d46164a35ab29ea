package service

import (
	"context"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// DriverService keeps driver presence in the geo index current.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	cacheStore    redis.DriverCacheInterface // Optional
	driverRepo    repository.DriverRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	locationStore redis.LocationStoreInterface,
	cacheStore redis.DriverCacheInterface,
	driverRepo repository.DriverRepository,
) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		cacheStore:    cacheStore,
		driverRepo:    driverRepo,
	}
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	DriverID  string
	Lat       float64
	Lng       float64
	Available *bool // Optional: defaults to true
}

// UpdateLocation publishes a driver's position and availability and marks
// them ONLINE. Vehicle class and gender come from the driver profile.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.DriverID == "" {
		return ErrInvalidDriverID
	}

	loc := domain.Location{Lat: req.Lat, Lng: req.Lng}
	if !loc.Valid() {
		return ErrInvalidLocation
	}

	profile, err := s.profile(ctx, req.DriverID)
	if err != nil {
		return err
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	if err := s.locationStore.SetPresence(ctx, domain.DriverPresence{
		DriverID:    req.DriverID,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Address:     req.DriverID, // The hub is keyed by authenticated user ID.
		VehicleType: domain.VehicleType(profile.VehicleType),
		Gender:      profile.Gender,
		Available:   available,
		UpdatedAt:   time.Now(),
	}); err != nil {
		return err
	}

	if profile.Status != string(domain.DriverStatusOnline) {
		if err := s.driverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusOnline); err != nil {
			return err
		}
		s.invalidate(ctx, req.DriverID)
	}

	return nil
}

// SetDriverOffline takes a driver out of dispatch.
func (s *DriverService) SetDriverOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		return err
	}

	if err := s.locationStore.RemoveLocation(ctx, driverID); err != nil {
		return err
	}

	s.invalidate(ctx, driverID)
	return nil
}

// profile reads the driver profile through the cache.
func (s *DriverService) profile(ctx context.Context, driverID string) (*redis.CachedDriver, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetDriver(ctx, driverID); err == nil && cached != nil {
			return cached, nil
		}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	cached := &redis.CachedDriver{
		ID:          driver.ID,
		Name:        driver.Name,
		Status:      string(driver.Status),
		VehicleType: string(driver.VehicleType),
		Gender:      driver.Gender,
	}
	if s.cacheStore != nil {
		_ = s.cacheStore.SetDriver(ctx, cached)
	}
	return cached, nil
}

func (s *DriverService) invalidate(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateDriver(ctx, driverID)
}
