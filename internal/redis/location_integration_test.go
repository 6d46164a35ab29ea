//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// Run with: TEST_REDIS_ADDR=localhost:6379 go test -tags integration ./internal/redis/

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestLocationStore(t *testing.T) (*LocationStore, *redis.Client) {
	t.Helper()
	client := newTestClient(t)
	return NewLocationStore(client, time.Minute), client
}

func reportPresence(t *testing.T, store *LocationStore) string {
	t.Helper()
	id := "driver-" + uuid.NewString()
	err := store.SetPresence(context.Background(), domain.DriverPresence{
		DriverID:    id,
		Lat:         12.9716,
		Lng:         77.5946,
		Address:     id,
		VehicleType: domain.VehicleCar,
		Available:   true,
	})
	if err != nil {
		t.Fatalf("set presence: %v", err)
	}
	t.Cleanup(func() { _ = store.RemoveLocation(context.Background(), id) })
	return id
}

func inGeoIndex(t *testing.T, client *redis.Client, driverID string) bool {
	t.Helper()
	pos, err := client.GeoPos(context.Background(), driverLocationKey, driverID).Result()
	if err != nil {
		t.Fatalf("geopos: %v", err)
	}
	return len(pos) == 1 && pos[0] != nil
}

func TestLocationStore_FindAvailablePrunesSilentDrivers(t *testing.T) {
	store, client := newTestLocationStore(t)
	ctx := context.Background()

	live := reportPresence(t, store)
	silent := reportPresence(t, store)
	// Simulate the presence hash expiring without an offline call.
	if err := client.Del(ctx, driverPresencePrefix+silent).Err(); err != nil {
		t.Fatalf("del presence: %v", err)
	}

	candidates, err := store.FindAvailable(ctx, domain.Location{Lat: 12.9716, Lng: 77.5946}, 1000,
		domain.CandidateFilter{VehicleType: domain.VehicleCar})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	var sawLive bool
	for _, c := range candidates {
		if c.DriverID == silent {
			t.Error("silent driver returned as candidate")
		}
		if c.DriverID == live {
			sawLive = true
		}
	}
	if !sawLive {
		t.Error("live driver missing from candidates")
	}
	if inGeoIndex(t, client, silent) {
		t.Error("silent driver should be pruned from the geo index")
	}
	if !inGeoIndex(t, client, live) {
		t.Error("live driver should stay in the geo index")
	}
}

func TestLocationStore_PruneKeepsDriverThatReportedAgain(t *testing.T) {
	store, client := newTestLocationStore(t)
	ctx := context.Background()

	// Presence came back between the search and the prune.
	id := reportPresence(t, store)
	if err := store.prune(ctx, []domain.Candidate{{DriverID: id}}); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !inGeoIndex(t, client, id) {
		t.Error("driver with live presence must not be pruned")
	}
}
