package service

import (
	"errors"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/maps"
)

func TestSplitFare(t *testing.T) {
	tests := []struct {
		total int64
		n     int
		want  []int64
	}{
		{15500, 1, []int64{15500}},
		{15500, 2, []int64{7750, 7750}},
		{10000, 3, []int64{3334, 3333, 3333}},
		{15500, 4, []int64{3875, 3875, 3875, 3875}},
		{7, 4, []int64{2, 2, 2, 1}},
	}

	for _, tt := range tests {
		shares, err := SplitFare(domain.Money{Amount: tt.total, Currency: "INR"}, tt.n)
		if err != nil {
			t.Fatalf("split %d/%d: %v", tt.total, tt.n, err)
		}
		if len(shares) != len(tt.want) {
			t.Fatalf("split %d/%d: expected %d shares, got %d", tt.total, tt.n, len(tt.want), len(shares))
		}
		for i, share := range shares {
			if share.Amount != tt.want[i] || share.Currency != "INR" {
				t.Errorf("split %d/%d share %d: expected %d INR, got %d %s", tt.total, tt.n, i, tt.want[i], share.Amount, share.Currency)
			}
		}
	}

	if _, err := SplitFare(domain.Money{Amount: 100}, 0); !errors.Is(err, ErrInvalidSeatCount) {
		t.Errorf("expected ErrInvalidSeatCount, got %v", err)
	}
}

func TestPrice_RoundsToWholeUnit(t *testing.T) {
	s := NewFareService(nil, nil, "")

	// 50 + 15*1.234 + 3*2.5 = 76.01
	got := s.Price(domain.VehicleCar, maps.Route{DistanceMeters: 1234, DurationSeconds: 150})
	if got.Amount != 7600 {
		t.Errorf("expected 7600, got %d", got.Amount)
	}
	if got.Currency != DefaultCurrency {
		t.Errorf("expected default currency, got %s", got.Currency)
	}
}

func TestSeatCount(t *testing.T) {
	tests := []struct {
		rideType domain.RideType
		vehicle  domain.VehicleType
		seats    int
		want     int
		wantErr  bool
	}{
		{domain.RideTypeSolo, domain.VehicleCar, 0, 1, false},
		{domain.RideTypeSolo, domain.VehicleCar, 4, 4, false},
		{domain.RideTypeCarpool, domain.VehicleCar, 0, 0, true},
		{domain.RideTypeCarpool, domain.VehicleAuto, 3, 3, false},
		{domain.RideTypeCarpool, domain.VehicleAuto, 4, 0, true},
		{domain.RideTypeSolo, domain.VehicleMoto, -1, 0, true},
	}

	for _, tt := range tests {
		got, err := seatCount(tt.rideType, tt.vehicle, tt.seats)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s/%s/%d: unexpected error %v", tt.rideType, tt.vehicle, tt.seats, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s/%s/%d: expected %d, got %d", tt.rideType, tt.vehicle, tt.seats, tt.want, got)
		}
	}
}
