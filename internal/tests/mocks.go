package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/maps"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Transitions
// run the domain guard under one lock, like a conditional UPDATE.
type MockRideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AcceptCallCount int32
	AcceptSuccesses int32
	CancelCallCount int32

	// Error injection
	CreateError error
	GetError    error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
}

// Stored returns the persisted ride, OTP included.
func (m *MockRideRepository) Stored(id string) *domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil
	}
	copy := *ride
	return &copy
}

// Count returns the number of stored rides.
func (m *MockRideRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rides)
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.AddRide(ride)
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	ride := m.Stored(id)
	if ride == nil {
		return nil, repository.ErrNotFound
	}
	return ride, nil
}

func (m *MockRideRepository) TransitionAccepted(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	ride, err := m.transition(rideID, func(r *domain.Ride) error {
		return r.Accept(driverID, at)
	})
	if err == nil {
		atomic.AddInt32(&m.AcceptSuccesses, 1)
	}
	return ride, err
}

func (m *MockRideRepository) TransitionStarted(ctx context.Context, rideID, driverID, otp string, at time.Time) (*domain.Ride, error) {
	return m.transition(rideID, func(r *domain.Ride) error {
		return r.Start(driverID, otp, at)
	})
}

func (m *MockRideRepository) TransitionEnded(ctx context.Context, rideID, driverID string, at time.Time) (*domain.Ride, error) {
	return m.transition(rideID, func(r *domain.Ride) error {
		return r.End(driverID, at)
	})
}

func (m *MockRideRepository) TransitionCancelled(ctx context.Context, rideID, reason string, at time.Time) (*domain.Ride, error) {
	atomic.AddInt32(&m.CancelCallCount, 1)
	return m.transition(rideID, func(r *domain.Ride) error {
		return r.Cancel(reason, at)
	})
}

func (m *MockRideRepository) ListStaleRequested(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []*domain.Ride
	for _, r := range m.rides {
		if r.Status == domain.RideStatusRequested && r.CreatedAt.Before(cutoff) {
			copy := *r
			stale = append(stale, &copy)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (m *MockRideRepository) transition(rideID string, fn func(*domain.Ride) error) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := *current
	if err := fn(&next); err != nil {
		return nil, err
	}
	m.rides[rideID] = &next
	result := next
	return &result, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.drivers[driver.ID]; taken {
		return repository.ErrAlreadyExists
	}
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	drivers := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		drivers = append(drivers, &copy)
	}
	return drivers, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
// FindAvailable filters by straight-line distance.
type MockLocationStore struct {
	mu       sync.RWMutex
	presence map[string]domain.DriverPresence

	// Counters for verification
	FindCallCount int32

	// Error injection
	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		presence: make(map[string]domain.DriverPresence),
	}
}

func (m *MockLocationStore) SetPresence(ctx context.Context, p domain.DriverPresence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presence[p.DriverID] = p
	return nil
}

// Presence returns the stored presence of a driver.
func (m *MockLocationStore) Presence(driverID string) (domain.DriverPresence, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presence[driverID]
	return p, ok
}

func (m *MockLocationStore) FindAvailable(ctx context.Context, center domain.Location, radiusMeters float64, filter domain.CandidateFilter) ([]domain.Candidate, error) {
	atomic.AddInt32(&m.FindCallCount, 1)
	if m.FindError != nil {
		return nil, m.FindError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		candidate domain.Candidate
		dist      float64
	}
	var found []scored
	for _, p := range m.presence {
		if !p.Available || (filter.VehicleType != "" && p.VehicleType != filter.VehicleType) {
			continue
		}
		if (filter.GenderPreference == domain.GenderMale || filter.GenderPreference == domain.GenderFemale) &&
			p.Gender != string(filter.GenderPreference) {
			continue
		}
		d := maps.HaversineMeters(center.Lat, center.Lng, p.Lat, p.Lng)
		if d > radiusMeters {
			continue
		}
		address := p.Address
		if address == "" {
			address = p.DriverID
		}
		found = append(found, scored{domain.Candidate{DriverID: p.DriverID, Address: address}, d})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].dist < found[j].dist })

	candidates := make([]domain.Candidate, len(found))
	for i, s := range found {
		candidates[i] = s.candidate
	}
	return candidates, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.presence, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireDispatchLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[rideID] {
		return false, nil
	}
	m.locks[rideID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseDispatchLock(ctx context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, rideID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHES
// ──────────────────────────────────────────────

// MockCache is a mock implementation of RideCacheInterface and DriverCacheInterface.
type MockCache struct {
	mu      sync.Mutex
	rides   map[string]*domain.Ride
	drivers map[string]*redis.CachedDriver

	// Counters for verification
	RideHits      int32
	Invalidations int32
}

// NewMockCache creates a new mock cache.
func NewMockCache() *MockCache {
	return &MockCache{
		rides:   make(map[string]*domain.Ride),
		drivers: make(map[string]*redis.CachedDriver),
	}
}

func (m *MockCache) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.RideHits, 1)
	copy := *ride
	return &copy, nil
}

func (m *MockCache) AddRide(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; ok {
		return nil
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockCache) SetRide(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.rides[ride.ID]; ok && current.Status.Stage() > ride.Status.Stage() {
		return nil
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockCache) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.Invalidations, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

func (m *MockCache) GetDriver(ctx context.Context, driverID string) (*redis.CachedDriver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[driverID]
	if !ok {
		return nil, nil
	}
	copy := *d
	return &copy, nil
}

func (m *MockCache) SetDriver(ctx context.Context, driver *redis.CachedDriver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockCache) InvalidateDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// ErrMockUnreachable is returned by MockNotifier for failing addresses.
var ErrMockUnreachable = errors.New("address unreachable")

// Delivery is one recorded notification.
type Delivery struct {
	Address string
	Event   string
	Payload any
}

// MockNotifier records deliveries. Addresses in Fail are rejected and
// addresses in Block wait for the context to expire.
type MockNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery

	Fail  map[string]bool
	Block map[string]bool
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Fail:  make(map[string]bool),
		Block: make(map[string]bool),
	}
}

func (m *MockNotifier) Deliver(ctx context.Context, address, event string, payload any) error {
	if m.Block[address] {
		<-ctx.Done()
		return ctx.Err()
	}
	if m.Fail[address] {
		return ErrMockUnreachable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{Address: address, Event: event, Payload: payload})
	return nil
}

// Deliveries returns the recorded deliveries of one event.
func (m *MockNotifier) Deliveries(event string) []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Delivery
	for _, d := range m.deliveries {
		if d.Event == event {
			out = append(out, d)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK GEOCODER AND ROUTES
// ──────────────────────────────────────────────

// MockGeocoder resolves addresses from a fixed table.
type MockGeocoder struct {
	Locations map[string]domain.Location
}

// NewMockGeocoder creates a geocoder that knows the given addresses.
func NewMockGeocoder(locations map[string]domain.Location) *MockGeocoder {
	return &MockGeocoder{Locations: locations}
}

func (m *MockGeocoder) Resolve(ctx context.Context, address string) (domain.Location, error) {
	loc, ok := m.Locations[address]
	if !ok {
		return domain.Location{}, maps.ErrUnresolvable
	}
	loc.Address = address
	return loc, nil
}

// MockRouteEstimator returns the same route for every pair of points.
type MockRouteEstimator struct {
	Route maps.Route

	CallCount int32
}

func (m *MockRouteEstimator) Estimate(ctx context.Context, from, to domain.Location) (maps.Route, error) {
	atomic.AddInt32(&m.CallCount, 1)
	return m.Route, nil
}

// ──────────────────────────────────────────────
// MOCK DISPATCHER
// ──────────────────────────────────────────────

// MockDispatcher records rides handed to dispatch.
type MockDispatcher struct {
	mu    sync.Mutex
	rides []*domain.Ride

	// Error injection
	EnqueueError error
}

func (m *MockDispatcher) Enqueue(ride *domain.Ride) error {
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = append(m.rides, ride.Redacted())
	return nil
}

// Enqueued returns the rides handed to dispatch.
func (m *MockDispatcher) Enqueued() []*domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Ride(nil), m.rides...)
}
