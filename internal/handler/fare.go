package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

// FareHandler handles fare quote requests.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// FareResponse is the HTTP response for a fare quote.
type FareResponse struct {
	Pickup          string           `json:"pickup"`
	Destination     string           `json:"destination"`
	DistanceMeters  int              `json:"distance_meters"`
	DurationSeconds int              `json:"duration_seconds"`
	Currency        string           `json:"currency"`
	Fares           map[string]int64 `json:"fares"`
}

// CarpoolFareResponse is the HTTP response for a per-seat quote.
type CarpoolFareResponse struct {
	VehicleType     string  `json:"vehicle_type"`
	RideType        string  `json:"ride_type"`
	Seats           int     `json:"seats"`
	DistanceMeters  int     `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	Currency        string  `json:"currency"`
	Total           int64   `json:"total"`
	Shares          []int64 `json:"shares"`
}

// GetFare handles GET /v1/rides/fare
func (h *FareHandler) GetFare(c *gin.Context) {
	quote, err := h.fareService.Quote(c.Request.Context(), c.Query("pickup"), c.Query("destination"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := FareResponse{
		Pickup:          quote.Pickup.Address,
		Destination:     quote.Destination.Address,
		DistanceMeters:  quote.DistanceMeters,
		DurationSeconds: quote.DurationSeconds,
		Fares:           make(map[string]int64, len(quote.Fares)),
	}
	for vehicle, fare := range quote.Fares {
		response.Fares[string(vehicle)] = fare.Amount
		response.Currency = fare.Currency
	}

	respondJSON(c, http.StatusOK, response)
}

// GetCarpoolFare handles GET /v1/rides/fare/carpool
func (h *FareHandler) GetCarpoolFare(c *gin.Context) {
	seats := 0
	if raw := c.Query("available_seats"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, service.ErrInvalidSeatCount)
			return
		}
		seats = n
	}

	breakdown, err := h.fareService.QuoteCarpool(c.Request.Context(), service.CarpoolQuoteRequest{
		Pickup:      c.Query("pickup"),
		Destination: c.Query("destination"),
		Seats:       seats,
		RideType:    domain.RideType(c.Query("ride_type")),
		VehicleType: domain.VehicleType(c.Query("vehicle_type")),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	shares := make([]int64, len(breakdown.Shares))
	for i, s := range breakdown.Shares {
		shares[i] = s.Amount
	}

	respondJSON(c, http.StatusOK, CarpoolFareResponse{
		VehicleType:     string(breakdown.VehicleType),
		RideType:        string(breakdown.RideType),
		Seats:           breakdown.Seats,
		DistanceMeters:  breakdown.DistanceMeters,
		DurationSeconds: breakdown.DurationSeconds,
		Currency:        breakdown.Total.Currency,
		Total:           breakdown.Total.Amount,
		Shares:          shares,
	})
}
