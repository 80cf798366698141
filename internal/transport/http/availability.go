package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// AvailabilityReader is the minimal interface for the remaining-slots read.
type AvailabilityReader interface {
	Availability(ctx context.Context, venue string) (domain.NightKey, domain.Venue, int, int, error)
}

// HandleAvailability serves GET /venues/{venue}/availability. The counts
// are an unlocked snapshot for display; sales can still race past them,
// the engine's serialized confirmation path is the authority.
func HandleAvailability(svc AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		venueCode, ok := parseAvailabilityPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		night, venue, sold, capacity, err := svc.Availability(r.Context(), venueCode)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := availabilityResponse{
			Night:     night.String(),
			Venue:     string(venue),
			Sold:      sold,
			Capacity:  capacity,
			Remaining: capacity - sold,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func parseAvailabilityPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "venues" || parts[2] != "availability" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type availabilityResponse struct {
	Night     string `json:"night"`
	Venue     string `json:"venue"`
	Sold      int    `json:"sold"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}
