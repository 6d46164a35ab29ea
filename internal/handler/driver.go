package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	driverRepo    repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		driverRepo:    driverRepo,
	}
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Available *bool   `json:"available,omitempty"`
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type"`
	Gender      string `json:"gender,omitempty"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	VehicleType string `json:"vehicle_type"`
	Gender      string `json:"gender,omitempty"`
}

func newDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:          d.ID,
		Name:        d.Name,
		Phone:       d.Phone,
		Status:      string(d.Status),
		VehicleType: string(d.VehicleType),
		Gender:      d.Gender,
	}
}

// Register handles POST /v1/drivers/register. The driver ID is the caller's
// identity.
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}
	vehicle := domain.VehicleType(req.VehicleType)
	if !vehicle.Valid() {
		respondError(c, service.ErrInvalidVehicleType)
		return
	}

	driver := &domain.Driver{
		ID:          middleware.CallerID(c),
		Name:        req.Name,
		Phone:       req.Phone,
		Status:      domain.DriverStatusOffline,
		VehicleType: vehicle,
		Gender:      req.Gender,
	}

	ctx := c.Request.Context()
	err := h.driverRepo.Create(ctx, driver)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// A phone collision with another profile leaves nothing under this ID.
		existing, getErr := h.driverRepo.GetByID(ctx, driver.ID)
		if getErr != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusConflict, gin.H{
			"message": "Driver already registered",
			"driver":  newDriverResponse(existing),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newDriverResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, newDriverResponse(d))
	}

	c.JSON(http.StatusOK, response)
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driverID := c.Param("id")
	if driverID != middleware.CallerID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "drivers may only update their own location"})
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		DriverID:  driverID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Available: req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	driverID := c.Param("id")
	if driverID != middleware.CallerID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "drivers may only change their own status"})
		return
	}

	if err := h.driverService.SetDriverOffline(c.Request.Context(), driverID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
