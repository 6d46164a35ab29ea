package domain

import (
	"crypto/subtle"
	"time"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Stage orders statuses along the lifecycle. Every transition moves a ride
// to a higher stage.
func (s RideStatus) Stage() int {
	switch s {
	case RideStatusRequested:
		return 0
	case RideStatusAccepted:
		return 1
	case RideStatusOngoing, RideStatusCancelled:
		return 2
	case RideStatusCompleted:
		return 3
	default:
		return -1
	}
}

// RideType distinguishes a private ride from a shared one.
type RideType string

const (
	RideTypeSolo    RideType = "solo"
	RideTypeCarpool RideType = "carpool"
)

// Valid reports whether t is a known ride type.
func (t RideType) Valid() bool {
	return t == RideTypeSolo || t == RideTypeCarpool
}

// GenderPreference is an optional driver matching filter.
type GenderPreference string

const (
	GenderAny    GenderPreference = "any"
	GenderMale   GenderPreference = "male"
	GenderFemale GenderPreference = "female"
)

// Valid reports whether g is empty or a known preference.
func (g GenderPreference) Valid() bool {
	switch g {
	case "", GenderAny, GenderMale, GenderFemale:
		return true
	}
	return false
}

// Ride represents a ride request in the system.
type Ride struct {
	ID               string
	RequesterID      string
	DriverID         string // Empty until accepted; never reassigned.
	Pickup           Location
	Destination      Location
	VehicleType      VehicleType
	RideType         RideType
	Seats            int
	GenderPreference GenderPreference
	Fare             Money // Fixed at creation.
	DistanceMeters   int
	DurationSeconds  int
	OTP              string
	Status           RideStatus
	CreatedAt        time.Time
	AcceptedAt       time.Time
	StartedAt        time.Time
	EndedAt          time.Time
	CancelledAt      time.Time
	CancelReason     string
}

// Redacted returns a copy of the ride with the one-time code removed.
func (r Ride) Redacted() *Ride {
	r.OTP = ""
	return &r
}

// Accept binds the driver to a requested ride.
func (r *Ride) Accept(driverID string, at time.Time) error {
	switch r.Status {
	case RideStatusRequested:
	case RideStatusAccepted, RideStatusOngoing, RideStatusCompleted:
		return ErrAlreadyAccepted
	default:
		return ErrInvalidRideState
	}

	r.Status = RideStatusAccepted
	r.DriverID = driverID
	r.AcceptedAt = at
	return nil
}

// Start moves an accepted ride to ongoing once the bound driver presents the OTP.
// The code is consumed on success.
func (r *Ride) Start(driverID, otp string, at time.Time) error {
	if r.Status != RideStatusAccepted {
		return ErrInvalidRideState
	}
	if r.DriverID != driverID {
		return ErrDriverMismatch
	}
	if !r.MatchesOTP(otp) {
		return ErrInvalidOTP
	}

	r.Status = RideStatusOngoing
	r.StartedAt = at
	r.OTP = ""
	return nil
}

// End completes an ongoing ride for its bound driver.
func (r *Ride) End(driverID string, at time.Time) error {
	if r.Status != RideStatusOngoing {
		return ErrInvalidRideState
	}
	if r.DriverID != driverID {
		return ErrDriverMismatch
	}

	r.Status = RideStatusCompleted
	r.EndedAt = at
	return nil
}

// Cancel withdraws a ride that has not started yet.
func (r *Ride) Cancel(reason string, at time.Time) error {
	if r.Status != RideStatusRequested && r.Status != RideStatusAccepted {
		return ErrInvalidRideState
	}

	r.Status = RideStatusCancelled
	r.CancelledAt = at
	r.CancelReason = reason
	return nil
}

// MatchesOTP compares the supplied code against the stored one in constant time.
func (r *Ride) MatchesOTP(otp string) bool {
	if r.OTP == "" || len(otp) != len(r.OTP) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(r.OTP), []byte(otp)) == 1
}
