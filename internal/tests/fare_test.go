package tests

import (
	"context"
	"errors"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// ──────────────────────────────────────────────
// FARE QUOTES
// ──────────────────────────────────────────────

func TestQuote_EveryVehicleClass(t *testing.T) {
	t.Parallel()
	s := newStack(t)

	quote, err := s.fare.Quote(context.Background(), pickup, dropoff)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	want := map[domain.VehicleType]int64{
		domain.VehicleAuto: 10000, // 30 + 10*5 + 2*10
		domain.VehicleCar:  15500, // 50 + 15*5 + 3*10
		domain.VehicleMoto: 7500,  // 20 + 8*5 + 1.5*10
	}
	for vehicle, amount := range want {
		got, ok := quote.Fares[vehicle]
		if !ok {
			t.Errorf("missing fare for %s", vehicle)
			continue
		}
		if got.Amount != amount {
			t.Errorf("%s: expected %d, got %d", vehicle, amount, got.Amount)
		}
	}
	if quote.DistanceMeters != testRoute.DistanceMeters {
		t.Errorf("expected distance %d, got %d", testRoute.DistanceMeters, quote.DistanceMeters)
	}
}

func TestQuote_UnresolvableAddress(t *testing.T) {
	t.Parallel()
	s := newStack(t)

	_, err := s.fare.Quote(context.Background(), pickup, "atlantis")
	if !errors.Is(err, service.ErrGeocodeUnresolved) {
		t.Errorf("expected ErrGeocodeUnresolved, got %v", err)
	}
	if s.routes.CallCount != 0 {
		t.Error("route must not be estimated for an unresolved address")
	}
}

func TestQuoteCarpool_SharesSumToTotal(t *testing.T) {
	t.Parallel()

	for _, vehicle := range []domain.VehicleType{domain.VehicleAuto, domain.VehicleCar, domain.VehicleMoto} {
		for seats := 1; seats <= vehicle.Capacity(); seats++ {
			s := newStack(t)
			breakdown, err := s.fare.QuoteCarpool(context.Background(), service.CarpoolQuoteRequest{
				Pickup:      pickup,
				Destination: dropoff,
				Seats:       seats,
				VehicleType: vehicle,
			})
			if err != nil {
				t.Fatalf("%s/%d: %v", vehicle, seats, err)
			}
			if len(breakdown.Shares) != seats {
				t.Fatalf("%s/%d: expected %d shares, got %d", vehicle, seats, seats, len(breakdown.Shares))
			}

			var sum int64
			for _, share := range breakdown.Shares {
				sum += share.Amount
			}
			if sum != breakdown.Total.Amount {
				t.Errorf("%s/%d: shares sum to %d, total is %d", vehicle, seats, sum, breakdown.Total.Amount)
			}
		}
	}
}

func TestQuoteCarpool_RejectsSeatsOverCapacity(t *testing.T) {
	t.Parallel()
	s := newStack(t)

	_, err := s.fare.QuoteCarpool(context.Background(), service.CarpoolQuoteRequest{
		Pickup:      pickup,
		Destination: dropoff,
		Seats:       domain.VehicleAuto.Capacity() + 1,
		VehicleType: domain.VehicleAuto,
	})
	if !errors.Is(err, service.ErrInvalidSeatCount) {
		t.Errorf("expected ErrInvalidSeatCount, got %v", err)
	}
}

func TestQuoteCarpool_SoloKeepsWholeFare(t *testing.T) {
	t.Parallel()
	s := newStack(t)

	breakdown, err := s.fare.QuoteCarpool(context.Background(), service.CarpoolQuoteRequest{
		Pickup:      pickup,
		Destination: dropoff,
		RideType:    domain.RideTypeSolo,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(breakdown.Shares) != 1 || breakdown.Shares[0] != breakdown.Total {
		t.Errorf("expected a single full share, got %+v", breakdown.Shares)
	}
}

type faultyGeocoder struct {
	err error
}

func (g faultyGeocoder) Resolve(ctx context.Context, address string) (domain.Location, error) {
	return domain.Location{}, g.err
}

func TestQuote_ProviderFaultIsNotUnresolved(t *testing.T) {
	t.Parallel()
	outage := errors.New("maps: REQUEST_DENIED - key revoked")
	fares := service.NewFareService(faultyGeocoder{err: outage}, &MockRouteEstimator{Route: testRoute}, "INR")

	_, err := fares.Quote(context.Background(), pickup, dropoff)
	if errors.Is(err, service.ErrGeocodeUnresolved) {
		t.Errorf("provider fault must not be reported as an unknown address: %v", err)
	}
	if !errors.Is(err, outage) {
		t.Errorf("expected the provider error to be wrapped, got %v", err)
	}
}
