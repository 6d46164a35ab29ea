package service

import "errors"

var (
	// ErrInvalidRequesterID is returned when requester ID is empty.
	ErrInvalidRequesterID = errors.New("invalid requester id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPickupLocation is returned when the pickup address is missing.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDestinationLocation is returned when the destination address is missing.
	ErrInvalidDestinationLocation = errors.New("invalid destination location")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidVehicleType is returned for an unknown vehicle class.
	ErrInvalidVehicleType = errors.New("invalid vehicle type")

	// ErrInvalidRideType is returned for a ride type other than solo or carpool.
	ErrInvalidRideType = errors.New("invalid ride type")

	// ErrInvalidGenderPreference is returned for an unknown gender preference.
	ErrInvalidGenderPreference = errors.New("invalid gender preference")

	// ErrInvalidSeatCount is returned when seats are not within the vehicle's capacity.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrGeocodeUnresolved is returned when an address cannot be geocoded.
	ErrGeocodeUnresolved = errors.New("address could not be geocoded")

	// ErrCancelNotAllowed is returned when the caller may not cancel the ride.
	ErrCancelNotAllowed = errors.New("caller not allowed to cancel this ride")

	// ErrDispatchQueueFull is returned when the dispatch queue cannot take another ride.
	ErrDispatchQueueFull = errors.New("dispatch queue full")

	// ErrDispatchInProgress is returned when another instance already dispatched the ride.
	ErrDispatchInProgress = errors.New("ride dispatch already in progress")
)
