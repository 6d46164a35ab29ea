package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
	"ridehail/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{repository.ErrAlreadyExists, http.StatusConflict},
		{service.ErrInvalidVehicleType, http.StatusBadRequest},
		{fmt.Errorf("%w: pickup: no match", service.ErrGeocodeUnresolved), http.StatusBadRequest},
		{domain.ErrAlreadyAccepted, http.StatusConflict},
		{domain.ErrInvalidRideState, http.StatusConflict},
		{domain.ErrDriverMismatch, http.StatusForbidden},
		{service.ErrCancelNotAllowed, http.StatusForbidden},
		{domain.ErrInvalidOTP, http.StatusUnprocessableEntity},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorToHTTPStatus(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
