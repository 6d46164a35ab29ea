package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
)

// VehicleType is the vehicle class a driver operates and a ride requests.
type VehicleType string

const (
	VehicleAuto VehicleType = "auto"
	VehicleCar  VehicleType = "car"
	VehicleMoto VehicleType = "moto"
)

// Valid reports whether v is a known vehicle class.
func (v VehicleType) Valid() bool {
	return v == VehicleAuto || v == VehicleCar || v == VehicleMoto
}

// Capacity returns the passenger seats a vehicle class offers.
func (v VehicleType) Capacity() int {
	switch v {
	case VehicleAuto:
		return 3
	case VehicleCar:
		return 4
	case VehicleMoto:
		return 1
	default:
		return 0
	}
}

// Driver is the profile of a registered driver.
type Driver struct {
	ID          string
	Name        string
	Phone       string
	Status      DriverStatus
	VehicleType VehicleType
	Gender      string
}

// DriverPresence is the transient dispatch-time view of a driver.
type DriverPresence struct {
	DriverID    string
	Lat         float64
	Lng         float64
	Address     string // Realtime delivery address.
	VehicleType VehicleType
	Gender      string
	Available   bool
	UpdatedAt   time.Time
}

// Candidate is a driver eligible to receive a dispatch notification.
type Candidate struct {
	DriverID string
	Address  string
}

// CandidateFilter narrows a radius query.
type CandidateFilter struct {
	VehicleType      VehicleType
	GenderPreference GenderPreference
}
