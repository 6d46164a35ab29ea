package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID               string  `json:"id"`
	RequesterID      string  `json:"requester_id"`
	DriverID         string  `json:"driver_id,omitempty"`
	Pickup           string  `json:"pickup"`
	PickupLat        float64 `json:"pickup_lat"`
	PickupLng        float64 `json:"pickup_lng"`
	Destination      string  `json:"destination"`
	DestinationLat   float64 `json:"destination_lat"`
	DestinationLng   float64 `json:"destination_lng"`
	VehicleType      string  `json:"vehicle_type"`
	RideType         string  `json:"ride_type"`
	Seats            int     `json:"seats"`
	GenderPreference string  `json:"gender_preference,omitempty"`
	Fare             int64   `json:"fare"`
	Currency         string  `json:"currency"`
	DistanceMeters   int     `json:"distance_meters"`
	DurationSeconds  int     `json:"duration_seconds"`
	OTP              string  `json:"otp,omitempty"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	AcceptedAt       string  `json:"accepted_at,omitempty"`
	StartedAt        string  `json:"started_at,omitempty"`
	EndedAt          string  `json:"ended_at,omitempty"`
	CancelledAt      string  `json:"cancelled_at,omitempty"`
	CancelReason     string  `json:"cancel_reason,omitempty"`
}

func newRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
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
		CreatedAt:        formatTime(r.CreatedAt),
		AcceptedAt:       formatTime(r.AcceptedAt),
		StartedAt:        formatTime(r.StartedAt),
		EndedAt:          formatTime(r.EndedAt),
		CancelledAt:      formatTime(r.CancelledAt),
		CancelReason:     r.CancelReason,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// respondError sends an error response with the appropriate HTTP status code.
// Internal errors are logged and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps domain, service and repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRequesterID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDestinationLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidRideType),
		errors.Is(err, service.ErrInvalidGenderPreference),
		errors.Is(err, service.ErrInvalidSeatCount),
		errors.Is(err, service.ErrGeocodeUnresolved):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, domain.ErrInvalidRideState),
		errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, domain.ErrDriverMismatch),
		errors.Is(err, service.ErrCancelNotAllowed):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
