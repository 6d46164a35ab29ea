package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	DriverCacheTTL = 5 * time.Minute
	RideCacheTTL   = 30 * time.Second
)

// Key prefixes
const (
	driverCachePrefix = "cache:driver:"
	rideCachePrefix   = "cache:ride:"
)

// CachedDriver is the driver profile subset needed to publish presence.
type CachedDriver struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	VehicleType string `json:"vehicle_type"`
	Gender      string `json:"gender"`
}

// CachedRide is the cached form of a ride, OTP included. Callers redact.
type CachedRide struct {
	ID                 string    `json:"id"`
	RequesterID        string    `json:"requester_id"`
	DriverID           string    `json:"driver_id,omitempty"`
	PickupAddress      string    `json:"pickup_address"`
	PickupLat          float64   `json:"pickup_lat"`
	PickupLng          float64   `json:"pickup_lng"`
	DestinationAddress string    `json:"destination_address"`
	DestinationLat     float64   `json:"destination_lat"`
	DestinationLng     float64   `json:"destination_lng"`
	VehicleType        string    `json:"vehicle_type"`
	RideType           string    `json:"ride_type"`
	Seats              int       `json:"seats"`
	GenderPreference   string    `json:"gender_preference,omitempty"`
	FareAmount         int64     `json:"fare_amount"`
	FareCurrency       string    `json:"fare_currency"`
	DistanceMeters     int       `json:"distance_meters"`
	DurationSeconds    int       `json:"duration_seconds"`
	OTP                string    `json:"otp,omitempty"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	AcceptedAt         time.Time `json:"accepted_at"`
	StartedAt          time.Time `json:"started_at"`
	EndedAt            time.Time `json:"ended_at"`
	CancelledAt        time.Time `json:"cancelled_at"`
	CancelReason       string    `json:"cancel_reason,omitempty"`
	Stage              int       `json:"stage"`
}

// GetDriver retrieves a driver from cache.
func (s *CacheStore) GetDriver(ctx context.Context, driverID string) (*CachedDriver, error) {
	key := driverCachePrefix + driverID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var driver CachedDriver
	if err := json.Unmarshal(data, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver in cache.
func (s *CacheStore) SetDriver(ctx context.Context, driver *CachedDriver) error {
	key := driverCachePrefix + driver.ID
	data, err := json.Marshal(driver)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, DriverCacheTTL).Err()
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverCachePrefix+driverID).Err()
}

// GetRide retrieves a ride from cache. A miss returns (nil, nil).
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	key := rideCachePrefix + rideID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedRide
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.toDomain(), nil
}

// setRideForward overwrites the entry unless it holds a later stage.
var setRideForward = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current then
	local ok, cached = pcall(cjson.decode, current)
	if ok and cached.stage and cached.stage > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// AddRide caches a ride read from the store. An existing entry wins: it was
// either written by a transition or by an equally fresh read.
func (s *CacheStore) AddRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(newCachedRide(ride))
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// SetRide writes through a ride returned by a committed transition.
func (s *CacheStore) SetRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(newCachedRide(ride))
	if err != nil {
		return err
	}
	return setRideForward.Run(ctx, s.client,
		[]string{rideCachePrefix + ride.ID},
		data, ride.Status.Stage(), RideCacheTTL.Milliseconds(),
	).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}

func newCachedRide(r *domain.Ride) *CachedRide {
	return &CachedRide{
		ID:                 r.ID,
		RequesterID:        r.RequesterID,
		DriverID:           r.DriverID,
		PickupAddress:      r.Pickup.Address,
		PickupLat:          r.Pickup.Lat,
		PickupLng:          r.Pickup.Lng,
		DestinationAddress: r.Destination.Address,
		DestinationLat:     r.Destination.Lat,
		DestinationLng:     r.Destination.Lng,
		VehicleType:        string(r.VehicleType),
		RideType:           string(r.RideType),
		Seats:              r.Seats,
		GenderPreference:   string(r.GenderPreference),
		FareAmount:         r.Fare.Amount,
		FareCurrency:       r.Fare.Currency,
		DistanceMeters:     r.DistanceMeters,
		DurationSeconds:    r.DurationSeconds,
		OTP:                r.OTP,
		Status:             string(r.Status),
		CreatedAt:          r.CreatedAt,
		AcceptedAt:         r.AcceptedAt,
		StartedAt:          r.StartedAt,
		EndedAt:            r.EndedAt,
		CancelledAt:        r.CancelledAt,
		CancelReason:       r.CancelReason,
		Stage:              r.Status.Stage(),
	}
}

func (c *CachedRide) toDomain() *domain.Ride {
	return &domain.Ride{
		ID:               c.ID,
		RequesterID:      c.RequesterID,
		DriverID:         c.DriverID,
		Pickup:           domain.Location{Address: c.PickupAddress, Lat: c.PickupLat, Lng: c.PickupLng},
		Destination:      domain.Location{Address: c.DestinationAddress, Lat: c.DestinationLat, Lng: c.DestinationLng},
		VehicleType:      domain.VehicleType(c.VehicleType),
		RideType:         domain.RideType(c.RideType),
		Seats:            c.Seats,
		GenderPreference: domain.GenderPreference(c.GenderPreference),
		Fare:             domain.Money{Amount: c.FareAmount, Currency: c.FareCurrency},
		DistanceMeters:   c.DistanceMeters,
		DurationSeconds:  c.DurationSeconds,
		OTP:              c.OTP,
		Status:           domain.RideStatus(c.Status),
		CreatedAt:        c.CreatedAt,
		AcceptedAt:       c.AcceptedAt,
		StartedAt:        c.StartedAt,
		EndedAt:          c.EndedAt,
		CancelledAt:      c.CancelledAt,
		CancelReason:     c.CancelReason,
	}
}
