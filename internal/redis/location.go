package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

const (
	driverLocationKey    = "drivers:locations"
	driverPresencePrefix = "drivers:presence:"

	// DefaultPresenceTTL bounds how long a silent driver stays dispatchable.
	DefaultPresenceTTL = 2 * time.Minute
)

// LocationStore is the dispatch-time geo index. Positions live in a Redis GEO
// set; availability, vehicle class and delivery address live in a per-driver
// hash that expires when the driver stops reporting.
type LocationStore struct {
	client      *redis.Client
	presenceTTL time.Duration
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client, presenceTTL time.Duration) *LocationStore {
	if presenceTTL <= 0 {
		presenceTTL = DefaultPresenceTTL
	}
	return &LocationStore{client: client, presenceTTL: presenceTTL}
}

// SetPresence records position and presence attributes in one round trip.
func (s *LocationStore) SetPresence(ctx context.Context, p domain.DriverPresence) error {
	key := driverPresencePrefix + p.DriverID
	available := "0"
	if p.Available {
		available = "1"
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	pipe := s.client.TxPipeline()
	pipe.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
		Name:      p.DriverID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.HSet(ctx, key,
		"address", p.Address,
		"vehicle_type", string(p.VehicleType),
		"gender", p.Gender,
		"available", available,
		"updated_at", strconv.FormatInt(updatedAt.Unix(), 10),
	)
	pipe.Expire(ctx, key, s.presenceTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set presence %s: %w", p.DriverID, err)
	}
	return nil
}

// FindAvailable returns dispatchable drivers within radiusMeters of center,
// nearest first. Drivers whose presence hash expired are skipped.
func (s *LocationStore) FindAvailable(ctx context.Context, center domain.Location, radiusMeters float64, filter domain.CandidateFilter) ([]domain.Candidate, error) {
	results, err := s.client.GeoRadius(ctx, driverLocationKey, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius: radiusMeters,
		Unit:   "m",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(results))
	if len(results) == 0 {
		return candidates, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(results))
	for i, r := range results {
		cmds[i] = pipe.HGetAll(ctx, driverPresencePrefix+r.Name)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load presence: %w", err)
	}

	var expired []domain.Candidate
	for i, r := range results {
		fields, err := cmds[i].Result()
		if err != nil {
			continue
		}
		if len(fields) == 0 {
			expired = append(expired, domain.Candidate{DriverID: r.Name})
			continue
		}
		if !matchesPresence(fields, filter) {
			continue
		}
		address := fields["address"]
		if address == "" {
			address = r.Name
		}
		candidates = append(candidates, domain.Candidate{DriverID: r.Name, Address: address})
	}

	if len(expired) > 0 {
		if err := s.prune(ctx, expired); err != nil {
			log.Printf("[GEO] prune of %d silent drivers failed: %v", len(expired), err)
		}
	}

	return candidates, nil
}

func matchesPresence(fields map[string]string, filter domain.CandidateFilter) bool {
	if fields["available"] != "1" {
		return false
	}
	if filter.VehicleType != "" && fields["vehicle_type"] != string(filter.VehicleType) {
		return false
	}
	switch filter.GenderPreference {
	case domain.GenderMale, domain.GenderFemale:
		if fields["gender"] != string(filter.GenderPreference) {
			return false
		}
	}
	return true
}

// pruneSilent drops geo members whose presence hash is gone. A driver that
// reported again since the search keeps its position.
var pruneSilent = redis.NewScript(`
local removed = 0
for i = 2, #KEYS do
	if redis.call("EXISTS", KEYS[i]) == 0 then
		removed = removed + redis.call("ZREM", KEYS[1], ARGV[i - 1])
	end
end
return removed
`)

// prune removes drivers that went silent without going offline.
func (s *LocationStore) prune(ctx context.Context, drivers []domain.Candidate) error {
	keys := make([]string, 0, len(drivers)+1)
	args := make([]any, 0, len(drivers))
	keys = append(keys, driverLocationKey)
	for _, d := range drivers {
		keys = append(keys, driverPresencePrefix+d.DriverID)
		args = append(args, d.DriverID)
	}
	return pruneSilent.Run(ctx, s.client, keys, args...).Err()
}

// RemoveLocation removes a driver from the geo index and drops their presence.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, driverLocationKey, driverID)
	pipe.Del(ctx, driverPresencePrefix+driverID)
	_, err := pipe.Exec(ctx)
	return err
}
