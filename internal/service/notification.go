package service

import (
	"context"
	"log"
	"time"

	"ridehail/internal/domain"
)

// EventNotifier delivers one event to one realtime address. Implementations
// must not block past ctx.
type EventNotifier interface {
	Deliver(ctx context.Context, address, event string, payload any) error
}

// RideSnapshot is the ride as carried in event payloads.
type RideSnapshot struct {
	ID               string    `json:"id"`
	RequesterID      string    `json:"requester_id"`
	DriverID         string    `json:"driver_id,omitempty"`
	Pickup           string    `json:"pickup"`
	PickupLat        float64   `json:"pickup_lat"`
	PickupLng        float64   `json:"pickup_lng"`
	Destination      string    `json:"destination"`
	DestinationLat   float64   `json:"destination_lat"`
	DestinationLng   float64   `json:"destination_lng"`
	VehicleType      string    `json:"vehicle_type"`
	RideType         string    `json:"ride_type"`
	Seats            int       `json:"seats"`
	GenderPreference string    `json:"gender_preference,omitempty"`
	Fare             int64     `json:"fare"`
	Currency         string    `json:"currency"`
	DistanceMeters   int       `json:"distance_meters"`
	DurationSeconds  int       `json:"duration_seconds"`
	OTP              string    `json:"otp,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	CancelReason     string    `json:"cancel_reason,omitempty"`
}

// NewRideSnapshot converts a ride into its payload form. The OTP is copied
// as-is; pass a redacted ride unless the recipient is the requester.
func NewRideSnapshot(r *domain.Ride) RideSnapshot {
	return RideSnapshot{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		DriverID:         r.DriverID,
		Pickup:           r.Pickup.Address,
		PickupLat:        r.Pickup.Lat,
		PickupLng:        r.Pickup.Lng,
		Destination:      r.Destination.Address,
		DestinationLat:   r.Destination.Lat,
		DestinationLng:   r.Destination.Lng,
		VehicleType:      string(r.VehicleType),
		RideType:         string(r.RideType),
		Seats:            r.Seats,
		GenderPreference: string(r.GenderPreference),
		Fare:             r.Fare.Amount,
		Currency:         r.Fare.Currency,
		DistanceMeters:   r.DistanceMeters,
		DurationSeconds:  r.DurationSeconds,
		OTP:              r.OTP,
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt,
		CancelReason:     r.CancelReason,
	}
}

// NotificationService turns ride transitions into addressed events.
type NotificationService struct {
	notifier EventNotifier
}

// NewNotificationService creates a new NotificationService. A nil notifier
// logs events instead of delivering them.
func NewNotificationService(notifier EventNotifier) *NotificationService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &NotificationService{notifier: notifier}
}

// NotifyNewRide offers a requested ride to one candidate driver.
func (s *NotificationService) NotifyNewRide(ctx context.Context, candidate domain.Candidate, ride *domain.Ride) error {
	return s.notifier.Deliver(ctx, candidate.Address, domain.EventNewRide, NewRideSnapshot(ride.Redacted()))
}

// NotifyRideConfirmed tells the requester a driver accepted. This is the one
// event that carries the OTP.
func (s *NotificationService) NotifyRideConfirmed(ctx context.Context, ride *domain.Ride) error {
	return s.notifier.Deliver(ctx, ride.RequesterID, domain.EventRideConfirmed, NewRideSnapshot(ride))
}

// NotifyRideStarted tells the requester the ride is underway.
func (s *NotificationService) NotifyRideStarted(ctx context.Context, ride *domain.Ride) error {
	return s.notifier.Deliver(ctx, ride.RequesterID, domain.EventRideStarted, NewRideSnapshot(ride.Redacted()))
}

// NotifyRideEnded tells the requester the ride is complete.
func (s *NotificationService) NotifyRideEnded(ctx context.Context, ride *domain.Ride) error {
	return s.notifier.Deliver(ctx, ride.RequesterID, domain.EventRideEnded, NewRideSnapshot(ride.Redacted()))
}

// NotifyRideCancelled tells the requester the ride was cancelled.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) error {
	return s.notifier.Deliver(ctx, ride.RequesterID, domain.EventRideCancelled, NewRideSnapshot(ride.Redacted()))
}

// LogNotifier writes events to the log. Used when no realtime transport is wired.
type LogNotifier struct{}

// Deliver logs the event and always succeeds.
func (LogNotifier) Deliver(ctx context.Context, address, event string, payload any) error {
	log.Printf("[NOTIFICATION] Event=%s, Recipient=%s", event, address)
	return nil
}
