package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"timebank-backend/internal/services"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad field", services.ErrValidation), http.StatusBadRequest},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid reference", services.ErrInvalidReference, http.StatusUnprocessableEntity},
		{"not found", errors.New("profile not found: no rows"), http.StatusNotFound},
		{"ownership", errors.New("appointment does not belong to user"), http.StatusForbidden},
		{"anything else", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(tt.err); got != tt.want {
				t.Fatalf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
