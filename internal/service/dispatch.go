package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/sync/errgroup"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
)

// DispatchConfig tunes candidate search and fan-out.
type DispatchConfig struct {
	RadiusMeters        float64
	CarpoolRadiusMeters float64
	Concurrency         int           // Deliveries in flight per ride.
	DeliveryTimeout     time.Duration // Per delivery, not per ride.
	Workers             int
	QueueSize           int
	LockTTL             time.Duration
}

// DefaultDispatchConfig returns the production defaults.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		RadiusMeters:        20000,
		CarpoolRadiusMeters: 20000,
		Concurrency:         16,
		DeliveryTimeout:     3 * time.Second,
		Workers:             4,
		QueueSize:           1024,
		LockTTL:             5 * time.Minute,
	}
}

// DispatchReport summarizes one fan-out.
type DispatchReport struct {
	Candidates int
	Delivered  int
	Failed     int
}

// Dispatcher offers newly requested rides to nearby drivers. Rides are handed
// over through a buffered queue so creation never waits on delivery.
type Dispatcher struct {
	locationStore       redis.LocationStoreInterface
	lockStore           redis.LockStoreInterface // Optional
	notificationService *NotificationService
	nrApp               *newrelic.Application // Optional
	cfg                 DispatchConfig
	queue               chan *domain.Ride
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	notificationService *NotificationService,
	nrApp *newrelic.Application,
	cfg DispatchConfig,
) *Dispatcher {
	def := DefaultDispatchConfig()
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = def.RadiusMeters
	}
	if cfg.CarpoolRadiusMeters <= 0 {
		cfg.CarpoolRadiusMeters = cfg.RadiusMeters
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = def.DeliveryTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}

	return &Dispatcher{
		locationStore:       locationStore,
		lockStore:           lockStore,
		notificationService: notificationService,
		nrApp:               nrApp,
		cfg:                 cfg,
		queue:               make(chan *domain.Ride, cfg.QueueSize),
	}
}

// Enqueue hands a ride to the dispatch workers without blocking.
func (d *Dispatcher) Enqueue(ride *domain.Ride) error {
	select {
	case d.queue <- ride.Redacted():
		return nil
	default:
		return ErrDispatchQueueFull
	}
}

// Run consumes the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ride := <-d.queue:
					report, err := d.Dispatch(ctx, ride)
					if err != nil {
						log.Printf("[DISPATCH] ride=%s failed: %v", ride.ID, err)
						continue
					}
					log.Printf("[DISPATCH] ride=%s candidates=%d delivered=%d failed=%d",
						ride.ID, report.Candidates, report.Delivered, report.Failed)
				}
			}
		}()
	}
	wg.Wait()
}

// Dispatch sends one new-ride event to every available driver near the
// pickup. A failed or slow delivery never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, ride *domain.Ride) (DispatchReport, error) {
	var report DispatchReport

	if d.nrApp != nil {
		txn := d.nrApp.StartTransaction("dispatch")
		defer txn.End()
		txn.AddAttribute("ride_id", ride.ID)
		ctx = newrelic.NewContext(ctx, txn)
	}

	if d.lockStore != nil {
		locked, err := d.lockStore.AcquireDispatchLock(ctx, ride.ID, d.cfg.LockTTL)
		if err != nil {
			// Dispatch without the lock; a duplicate offer is harmless.
			log.Printf("[DISPATCH] ride=%s lock unavailable: %v", ride.ID, err)
		} else if !locked {
			return report, ErrDispatchInProgress
		}
	}

	radius := d.cfg.RadiusMeters
	if ride.RideType == domain.RideTypeCarpool {
		radius = d.cfg.CarpoolRadiusMeters
	}

	candidates, err := d.locationStore.FindAvailable(ctx, ride.Pickup, radius, domain.CandidateFilter{
		VehicleType:      ride.VehicleType,
		GenderPreference: ride.GenderPreference,
	})
	if err != nil {
		noticeError(ctx, err)
		d.releaseLock(ctx, ride.ID)
		return report, err
	}
	report.Candidates = len(candidates)

	var delivered, failed int32
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)

	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, d.cfg.DeliveryTimeout)
			defer cancel()

			if err := d.notificationService.NotifyNewRide(dctx, candidate, ride); err != nil {
				atomic.AddInt32(&failed, 1)
				log.Printf("[DISPATCH] ride=%s driver=%s delivery failed: %v", ride.ID, candidate.DriverID, err)
				return nil
			}
			atomic.AddInt32(&delivered, 1)
			return nil
		})
	}
	_ = g.Wait()

	report.Delivered = int(delivered)
	report.Failed = int(failed)

	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute("candidates", report.Candidates)
		txn.AddAttribute("delivered", report.Delivered)
		txn.AddAttribute("failed", report.Failed)
	}

	return report, nil
}

// releaseLock lets a later attempt dispatch a ride whose search failed.
func (d *Dispatcher) releaseLock(ctx context.Context, rideID string) {
	if d.lockStore == nil {
		return
	}
	if err := d.lockStore.ReleaseDispatchLock(ctx, rideID); err != nil {
		log.Printf("[DISPATCH] ride=%s lock release failed: %v", rideID, err)
	}
}

func noticeError(ctx context.Context, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(err)
	}
}
