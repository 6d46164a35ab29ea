package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	Pickup           string `json:"pickup"`
	Destination      string `json:"destination"`
	VehicleType      string `json:"vehicle_type"`
	RideType         string `json:"ride_type,omitempty"`
	AvailableSeats   int    `json:"available_seats,omitempty"`
	GenderPreference string `json:"gender_preference,omitempty"`
}

// StartRideRequest is the HTTP request body for starting a ride.
type StartRideRequest struct {
	OTP string `json:"otp"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Create(c.Request.Context(), service.CreateRideRequest{
		RequesterID:      middleware.CallerID(c),
		Pickup:           req.Pickup,
		Destination:      req.Destination,
		VehicleType:      domain.VehicleType(req.VehicleType),
		RideType:         domain.RideType(req.RideType),
		Seats:            req.AvailableSeats,
		GenderPreference: domain.GenderPreference(req.GenderPreference),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.Get(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// ConfirmRide handles POST /v1/rides/:id/confirm
func (h *RideHandler) ConfirmRide(c *gin.Context) {
	ride, err := h.rideService.Confirm(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// StartRide handles POST /v1/rides/:id/start
func (h *RideHandler) StartRide(c *gin.Context) {
	var req StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Start(c.Request.Context(), c.Param("id"), middleware.CallerID(c), req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// EndRide handles POST /v1/rides/:id/end
func (h *RideHandler) EndRide(c *gin.Context) {
	ride, err := h.rideService.End(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ride, err := h.rideService.Cancel(c.Request.Context(), service.CancelRideRequest{
		RideID:   c.Param("id"),
		CallerID: middleware.CallerID(c),
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newRideResponse(ride))
}
