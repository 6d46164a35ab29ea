package domain

import (
	"errors"
	"testing"
	"time"
)

func requested() *Ride {
	return &Ride{
		ID:          "ride-1",
		RequesterID: "rider-1",
		OTP:         "123456",
		Status:      RideStatusRequested,
	}
}

func TestRide_Accept(t *testing.T) {
	now := time.Now()
	r := requested()

	if err := r.Accept("driver-1", now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if r.Status != RideStatusAccepted || r.DriverID != "driver-1" || !r.AcceptedAt.Equal(now) {
		t.Errorf("unexpected ride after accept: %+v", r)
	}

	err := r.Accept("driver-2", now)
	if !errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("expected ErrAlreadyAccepted, got %v", err)
	}
	if !errors.Is(err, ErrInvalidRideState) {
		t.Error("ErrAlreadyAccepted should wrap ErrInvalidRideState")
	}
	if r.DriverID != "driver-1" {
		t.Error("driver must never be reassigned")
	}
}

func TestRide_AcceptCancelled(t *testing.T) {
	r := requested()
	r.Status = RideStatusCancelled

	err := r.Accept("driver-1", time.Now())
	if !errors.Is(err, ErrInvalidRideState) || errors.Is(err, ErrAlreadyAccepted) {
		t.Errorf("expected plain ErrInvalidRideState, got %v", err)
	}
}

func TestRide_StartGuardOrder(t *testing.T) {
	tests := []struct {
		name    string
		status  RideStatus
		driver  string
		otp     string
		wantErr error
	}{
		{"requested", RideStatusRequested, "driver-1", "123456", ErrInvalidRideState},
		{"ongoing", RideStatusOngoing, "driver-1", "123456", ErrInvalidRideState},
		{"wrong driver and otp", RideStatusAccepted, "driver-2", "000000", ErrDriverMismatch},
		{"wrong otp", RideStatusAccepted, "driver-1", "000000", ErrInvalidOTP},
		{"short otp", RideStatusAccepted, "driver-1", "1234", ErrInvalidOTP},
		{"ok", RideStatusAccepted, "driver-1", "123456", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := requested()
			r.Status = tt.status
			r.DriverID = "driver-1"

			err := r.Start(tt.driver, tt.otp, time.Now())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil {
				if r.Status != RideStatusOngoing || r.OTP != "" {
					t.Errorf("expected ongoing with OTP consumed, got %s/%q", r.Status, r.OTP)
				}
				return
			}
			if r.Status != tt.status || r.OTP != "123456" {
				t.Error("failed start must leave the ride untouched")
			}
		})
	}
}

func TestRide_End(t *testing.T) {
	r := requested()
	r.Status = RideStatusOngoing
	r.DriverID = "driver-1"

	if err := r.End("driver-2", time.Now()); !errors.Is(err, ErrDriverMismatch) {
		t.Errorf("expected ErrDriverMismatch, got %v", err)
	}
	if err := r.End("driver-1", time.Now()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := r.End("driver-1", time.Now()); !errors.Is(err, ErrInvalidRideState) {
		t.Errorf("expected ErrInvalidRideState on second end, got %v", err)
	}
}

func TestRide_Cancel(t *testing.T) {
	for _, status := range []RideStatus{RideStatusRequested, RideStatusAccepted} {
		r := requested()
		r.Status = status
		if err := r.Cancel("no longer needed", time.Now()); err != nil {
			t.Errorf("%s: expected cancel to succeed, got %v", status, err)
		}
		if r.Status != RideStatusCancelled || r.CancelReason != "no longer needed" {
			t.Errorf("%s: unexpected ride after cancel: %+v", status, r)
		}
	}

	for _, status := range []RideStatus{RideStatusOngoing, RideStatusCompleted, RideStatusCancelled} {
		r := requested()
		r.Status = status
		if err := r.Cancel("", time.Now()); !errors.Is(err, ErrInvalidRideState) {
			t.Errorf("%s: expected ErrInvalidRideState, got %v", status, err)
		}
	}
}

func TestRide_Redacted(t *testing.T) {
	r := requested()
	red := r.Redacted()

	if red.OTP != "" {
		t.Error("redacted copy must not carry the OTP")
	}
	if r.OTP != "123456" {
		t.Error("redacting must not modify the original")
	}
}

func TestVehicleType_Capacity(t *testing.T) {
	want := map[VehicleType]int{VehicleAuto: 3, VehicleCar: 4, VehicleMoto: 1, "bus": 0}
	for v, n := range want {
		if got := v.Capacity(); got != n {
			t.Errorf("%s: expected %d, got %d", v, n, got)
		}
	}
}

func TestRideStatus_StageMovesForward(t *testing.T) {
	edges := [][2]RideStatus{
		{RideStatusRequested, RideStatusAccepted},
		{RideStatusAccepted, RideStatusOngoing},
		{RideStatusOngoing, RideStatusCompleted},
		{RideStatusRequested, RideStatusCancelled},
		{RideStatusAccepted, RideStatusCancelled},
	}
	for _, e := range edges {
		if e[0].Stage() >= e[1].Stage() {
			t.Errorf("%s -> %s does not move forward", e[0], e[1])
		}
	}
	if RideStatus("unknown").Stage() >= 0 {
		t.Error("unknown status should rank below every real one")
	}
}
