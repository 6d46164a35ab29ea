package service

import (
	"context"
	"log"
	"time"
)

const expireBatchSize = 100

// Expirer periodically cancels requested rides that no driver accepted
// within the TTL.
type Expirer struct {
	rideService *RideService
	ttl         time.Duration
	interval    time.Duration
}

// NewExpirer creates a new Expirer. interval defaults to a quarter of ttl.
func NewExpirer(rideService *RideService, ttl, interval time.Duration) *Expirer {
	if interval <= 0 {
		interval = ttl / 4
	}
	if interval < time.Second {
		interval = time.Second
	}
	return &Expirer{rideService: rideService, ttl: ttl, interval: interval}
}

// Run sweeps until ctx is cancelled. It returns immediately when ttl is zero.
func (e *Expirer) Run(ctx context.Context) {
	if e.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	log.Printf("[EXPIRER] Started (ttl=%s, interval=%s)", e.ttl, e.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[EXPIRER] Stopped")
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass.
func (e *Expirer) Sweep(ctx context.Context) int {
	cutoff := e.rideService.now().Add(-e.ttl)
	n, err := e.rideService.ExpireStale(ctx, cutoff, expireBatchSize)
	if err != nil {
		log.Printf("[EXPIRER] sweep failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[EXPIRER] expired %d rides", n)
	}
	return n
}
