package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRideState is returned when a transition is attempted from the wrong status.
	ErrInvalidRideState = errors.New("invalid ride state")

	// ErrAlreadyAccepted is returned when confirming a ride another driver already holds.
	ErrAlreadyAccepted = fmt.Errorf("ride already accepted: %w", ErrInvalidRideState)

	// ErrDriverMismatch is returned when the caller is not the driver bound to the ride.
	ErrDriverMismatch = errors.New("driver not assigned to this ride")

	// ErrInvalidOTP is returned when the supplied one-time code does not match.
	ErrInvalidOTP = errors.New("invalid otp")
)
