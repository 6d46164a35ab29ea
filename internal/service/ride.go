package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// ExpiredReason is the cancel reason recorded for rides nobody accepted in time.
const ExpiredReason = "expired"

// DispatcherInterface defines the hand-off from ride creation to dispatch.
type DispatcherInterface interface {
	Enqueue(ride *domain.Ride) error
}

// Ensure Dispatcher implements DispatcherInterface.
var _ DispatcherInterface = (*Dispatcher)(nil)

// RideService handles ride operations.
type RideService struct {
	rideRepo            repository.RideRepository
	fareService         *FareService
	dispatcher          DispatcherInterface
	notificationService *NotificationService
	cache               redis.RideCacheInterface // Optional
	cancelPolicy        CancelPolicy
	now                 func() time.Time
}

// NewRideService creates a new RideService. cache and cancelPolicy may be nil.
func NewRideService(
	rideRepo repository.RideRepository,
	fareService *FareService,
	dispatcher DispatcherInterface,
	notificationService *NotificationService,
	cache redis.RideCacheInterface,
	cancelPolicy CancelPolicy,
) *RideService {
	if cancelPolicy == nil {
		cancelPolicy = RequesterOrDriverPolicy{}
	}
	if notificationService == nil {
		notificationService = NewNotificationService(nil)
	}
	return &RideService{
		rideRepo:            rideRepo,
		fareService:         fareService,
		dispatcher:          dispatcher,
		notificationService: notificationService,
		cache:               cache,
		cancelPolicy:        cancelPolicy,
		now:                 time.Now,
	}
}

// SetClock replaces the time source used for transition timestamps.
func (s *RideService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	RequesterID      string
	Pickup           string
	Destination      string
	VehicleType      domain.VehicleType
	RideType         domain.RideType         // Optional: defaults to solo
	Seats            int                     // Optional: defaults to 1
	GenderPreference domain.GenderPreference // Optional
}

// Create prices and persists a new ride, then queues it for dispatch.
// The returned ride has its OTP redacted.
func (s *RideService) Create(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := validateCreateRequest(&req); err != nil {
		return nil, err
	}

	pickup, destination, err := s.fareService.Locate(ctx, req.Pickup, req.Destination)
	if err != nil {
		return nil, err
	}

	quote, err := s.fareService.QuoteRoute(ctx, pickup, destination, req.VehicleType)
	if err != nil {
		return nil, err
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	ride := &domain.Ride{
		ID:               uuid.New().String(),
		RequesterID:      req.RequesterID,
		Pickup:           pickup,
		Destination:      destination,
		VehicleType:      req.VehicleType,
		RideType:         req.RideType,
		Seats:            req.Seats,
		GenderPreference: req.GenderPreference,
		Fare:             quote.Fare,
		DistanceMeters:   quote.DistanceMeters,
		DurationSeconds:  quote.DurationSeconds,
		OTP:              otp,
		Status:           domain.RideStatusRequested,
		CreatedAt:        s.now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Enqueue(ride); err != nil {
			log.Printf("[RIDE] ride=%s not queued for dispatch: %v", ride.ID, err)
		}
	}

	return ride.Redacted(), nil
}

// Get returns a ride. The OTP is only shown to the requester.
func (s *RideService) Get(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if callerID != "" && callerID == ride.RequesterID {
		return ride, nil
	}
	return ride.Redacted(), nil
}

// Confirm binds the calling driver to a requested ride. Of any number of
// concurrent confirms, exactly one succeeds.
func (s *RideService) Confirm(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.TransitionAccepted(ctx, rideID, driverID, s.now())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, ride)

	if err := s.notificationService.NotifyRideConfirmed(ctx, ride); err != nil {
		log.Printf("[RIDE] ride=%s %s delivery failed: %v", ride.ID, domain.EventRideConfirmed, err)
	}

	return ride.Redacted(), nil
}

// Start begins an accepted ride once its driver presents the requester's OTP.
func (s *RideService) Start(ctx context.Context, rideID, driverID, otp string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.TransitionStarted(ctx, rideID, driverID, otp, s.now())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, ride)

	if err := s.notificationService.NotifyRideStarted(ctx, ride); err != nil {
		log.Printf("[RIDE] ride=%s %s delivery failed: %v", ride.ID, domain.EventRideStarted, err)
	}

	return ride.Redacted(), nil
}

// End completes an ongoing ride.
func (s *RideService) End(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.TransitionEnded(ctx, rideID, driverID, s.now())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, ride)

	if err := s.notificationService.NotifyRideEnded(ctx, ride); err != nil {
		log.Printf("[RIDE] ride=%s %s delivery failed: %v", ride.ID, domain.EventRideEnded, err)
	}

	return ride.Redacted(), nil
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID   string
	CallerID string
	Reason   string
}

// Cancel withdraws a ride that has not started, if the policy allows the caller.
func (s *RideService) Cancel(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	current, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if !s.cancelPolicy.CanCancel(current, req.CallerID) {
		return nil, ErrCancelNotAllowed
	}

	return s.cancel(ctx, req.RideID, req.Reason)
}

// ExpireStale cancels requested rides created before cutoff and returns how
// many it cancelled. Rides accepted in the meantime are skipped.
func (s *RideService) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.rideRepo.ListStaleRequested(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ride := range stale {
		if _, err := s.cancel(ctx, ride.ID, ExpiredReason); err != nil {
			log.Printf("[RIDE] ride=%s not expired: %v", ride.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *RideService) cancel(ctx context.Context, rideID, reason string) (*domain.Ride, error) {
	ride, err := s.rideRepo.TransitionCancelled(ctx, rideID, reason, s.now())
	if err != nil {
		return nil, err
	}
	s.remember(ctx, ride)

	if err := s.notificationService.NotifyRideCancelled(ctx, ride); err != nil {
		log.Printf("[RIDE] ride=%s %s delivery failed: %v", ride.ID, domain.EventRideCancelled, err)
	}

	return ride.Redacted(), nil
}

// load reads through the ride cache.
func (s *RideService) load(ctx context.Context, rideID string) (*domain.Ride, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRide(ctx, rideID); err == nil && cached != nil {
			return cached, nil
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	// Populate only an empty entry, so a transition that committed while
	// this read was in flight is not overwritten by the older row.
	if s.cache != nil {
		_ = s.cache.AddRide(ctx, ride)
	}
	return ride, nil
}

// remember writes a committed transition through to the cache. If that
// fails the entry is dropped so readers fall back to the store.
func (s *RideService) remember(ctx context.Context, ride *domain.Ride) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRide(ctx, ride); err != nil {
		_ = s.cache.InvalidateRide(ctx, ride.ID)
	}
}

// validateCreateRequest validates the request and fills in defaults.
func validateCreateRequest(req *CreateRideRequest) error {
	if req.RequesterID == "" {
		return ErrInvalidRequesterID
	}
	if req.Pickup == "" {
		return ErrInvalidPickupLocation
	}
	if req.Destination == "" {
		return ErrInvalidDestinationLocation
	}
	if !req.VehicleType.Valid() {
		return ErrInvalidVehicleType
	}

	if req.RideType == "" {
		req.RideType = domain.RideTypeSolo
	}
	if !req.RideType.Valid() {
		return ErrInvalidRideType
	}
	if !req.GenderPreference.Valid() {
		return ErrInvalidGenderPreference
	}

	seats, err := seatCount(req.RideType, req.VehicleType, req.Seats)
	if err != nil {
		return err
	}
	req.Seats = seats

	return nil
}

// generateOTP returns a 6-digit code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CancelPolicy decides who may cancel a ride.
type CancelPolicy interface {
	CanCancel(ride *domain.Ride, callerID string) bool
}

// RequesterOrDriverPolicy lets the requester or the bound driver cancel.
type RequesterOrDriverPolicy struct{}

func (RequesterOrDriverPolicy) CanCancel(ride *domain.Ride, callerID string) bool {
	if callerID == "" {
		return false
	}
	return callerID == ride.RequesterID || (ride.DriverID != "" && callerID == ride.DriverID)
}
