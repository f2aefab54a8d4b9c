package services

import (
	"errors"
	"testing"
	"time"
)

func TestCreateRequestParse(t *testing.T) {
	req := CreateRequest{
		Title:       "Garden help",
		ServiceType: "Gardening",
		Datetime:    "2026-09-01T14:30:00Z",
	}

	startsAt, err := req.parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	if !startsAt.Equal(want) {
		t.Fatalf("starts at: got %v, want %v", startsAt, want)
	}
}

func TestCreateRequestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing title", CreateRequest{ServiceType: "Gardening", Datetime: "2026-09-01T14:30:00Z"}},
		{"missing service type", CreateRequest{Title: "x", Datetime: "2026-09-01T14:30:00Z"}},
		{"legacy split shape", CreateRequest{Title: "x", ServiceType: "y", Datetime: "01/09/2026"}},
		{"empty datetime", CreateRequest{Title: "x", ServiceType: "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.req.parse(); !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}
}
