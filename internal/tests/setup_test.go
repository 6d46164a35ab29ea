package tests

import (
	"context"
	"testing"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/maps"
	"ridehail/internal/service"
)

const (
	riderID = "rider-1"
	pickup  = "MG Road"
	dropoff = "Indiranagar"
)

// testRoute prices a car ride at 50 + 15*5 + 3*10 = 155.
var testRoute = maps.Route{DistanceMeters: 5000, DurationSeconds: 600}

type stack struct {
	rides     *MockRideRepository
	drivers   *MockDriverRepository
	locations *MockLocationStore
	cache     *MockCache
	notifier  *MockNotifier
	dispatch  *MockDispatcher
	routes    *MockRouteEstimator
	fare      *service.FareService
	rideSvc   *service.RideService
	driverSvc *service.DriverService
	clock     time.Time
}

func newStack(t *testing.T) *stack {
	t.Helper()

	s := &stack{
		rides:     NewMockRideRepository(),
		drivers:   NewMockDriverRepository(),
		locations: NewMockLocationStore(),
		cache:     NewMockCache(),
		notifier:  NewMockNotifier(),
		dispatch:  &MockDispatcher{},
		routes:    &MockRouteEstimator{Route: testRoute},
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	geocoder := NewMockGeocoder(map[string]domain.Location{
		pickup:  {Lat: 12.9756, Lng: 77.6066},
		dropoff: {Lat: 12.9719, Lng: 77.6412},
	})
	s.fare = service.NewFareService(geocoder, s.routes, "INR")
	notifications := service.NewNotificationService(s.notifier)
	s.rideSvc = service.NewRideService(s.rides, s.fare, s.dispatch, notifications, s.cache, nil)
	s.rideSvc.SetClock(func() time.Time { return s.clock })
	s.driverSvc = service.NewDriverService(s.locations, s.cache, s.drivers)
	return s
}

func (s *stack) requestRide(t *testing.T, vehicle domain.VehicleType) *domain.Ride {
	t.Helper()

	ride, err := s.rideSvc.Create(context.Background(), service.CreateRideRequest{
		RequesterID: riderID,
		Pickup:      pickup,
		Destination: dropoff,
		VehicleType: vehicle,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return ride
}

// otp returns the code stored for a ride.
func (s *stack) otp(t *testing.T, rideID string) string {
	t.Helper()

	stored := s.rides.Stored(rideID)
	if stored == nil {
		t.Fatalf("ride %s not stored", rideID)
	}
	return stored.OTP
}
