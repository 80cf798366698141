package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lex-codes11/skipbot/internal/app"
	"github.com/lex-codes11/skipbot/internal/domain"
	"github.com/lex-codes11/skipbot/internal/metrics"
)

// AdminLedger is the minimal interface the admin endpoints need. The
// handlers only execute mutations; authorization happens in the bearer-auth
// middleware wrapped around them.
type AdminLedger interface {
	AddSale(ctx context.Context, in app.AddSaleInput) (domain.Allocation, error)
	RemoveSale(ctx context.Context, in app.RemoveSaleInput) (domain.Allocation, error)
	MoveSale(ctx context.Context, in app.MoveSaleInput) (domain.Allocation, error)
	ExportSales(ctx context.Context, night string) (app.NightSheet, error)
	ListPassphrases(ctx context.Context, night string) (domain.NightKey, []string, error)
}

// HandleAdminSales serves GET (export), POST (manual add) and DELETE
// (remove by slot) on /admin/sales.
func HandleAdminSales(svc AdminLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			exportSales(w, r, svc)
		case http.MethodPost:
			addSale(w, r, svc)
		case http.MethodDelete:
			removeSale(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminMove serves POST /admin/sales/move.
func HandleAdminMove(svc AdminLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req moveSaleRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		allocation, err := svc.MoveSale(r.Context(), app.MoveSaleInput{
			Night:     req.Night,
			FromVenue: req.FromVenue,
			ToVenue:   req.ToVenue,
			Position:  req.Position,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		metrics.AdminMutationsTotal.WithLabelValues("move").Inc()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(allocationResponse(allocation))
	}
}

// HandleAdminPassphrases serves GET /admin/passphrases.
func HandleAdminPassphrases(svc AdminLedger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		night, pool, err := svc.ListPassphrases(r.Context(), r.URL.Query().Get("night"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := passphrasesResponse{
			Night:       night.String(),
			NightLabel:  night.Human(),
			Passphrases: pool,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func exportSales(w http.ResponseWriter, r *http.Request, svc AdminLedger) {
	sheet, err := svc.ExportSales(r.Context(), r.URL.Query().Get("night"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := nightSheetResponse{
		Night:      sheet.Night.String(),
		NightLabel: sheet.Label,
	}
	for _, vs := range sheet.Venues {
		venue := venueSheetResponse{
			Venue:    string(vs.Venue),
			Capacity: vs.Capacity,
			Sold:     len(vs.Records),
			Sales:    make([]saleResponse, 0, len(vs.Records)),
		}
		for _, rec := range vs.Records {
			venue.Sales = append(venue.Sales, saleResponse{
				Position:   rec.Position,
				HolderID:   rec.HolderID,
				ExternalID: rec.ExternalID,
				Passphrase: rec.Passphrase,
			})
		}
		resp.Venues = append(resp.Venues, venue)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func addSale(w http.ResponseWriter, r *http.Request, svc AdminLedger) {
	var req addSaleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	allocation, err := svc.AddSale(r.Context(), app.AddSaleInput{
		Night:    req.Night,
		Venue:    req.Venue,
		HolderID: req.HolderID,
		Position: req.Position,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.AdminMutationsTotal.WithLabelValues("add").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(allocationResponse(allocation))
}

func removeSale(w http.ResponseWriter, r *http.Request, svc AdminLedger) {
	q := r.URL.Query()
	position, err := strconv.Atoi(q.Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "position must be an integer")
		return
	}

	allocation, err := svc.RemoveSale(r.Context(), app.RemoveSaleInput{
		Night:    q.Get("night"),
		Venue:    q.Get("venue"),
		Position: position,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.AdminMutationsTotal.WithLabelValues("remove").Inc()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(allocationResponse(allocation))
}

type addSaleRequest struct {
	Night    string `json:"night"`
	Venue    string `json:"venue"`
	HolderID string `json:"holder_id"`
	Position int    `json:"position"`
}

type moveSaleRequest struct {
	Night     string `json:"night"`
	FromVenue string `json:"from_venue"`
	ToVenue   string `json:"to_venue"`
	Position  int    `json:"position"`
}

type saleResponse struct {
	Position   int    `json:"position"`
	HolderID   string `json:"holder_id"`
	ExternalID string `json:"external_id"`
	Passphrase string `json:"passphrase"`
}

type venueSheetResponse struct {
	Venue    string         `json:"venue"`
	Capacity int            `json:"capacity"`
	Sold     int            `json:"sold"`
	Sales    []saleResponse `json:"sales"`
}

type nightSheetResponse struct {
	Night      string               `json:"night"`
	NightLabel string               `json:"night_label"`
	Venues     []venueSheetResponse `json:"venues"`
}

type passphrasesResponse struct {
	Night       string   `json:"night"`
	NightLabel  string   `json:"night_label"`
	Passphrases []string `json:"passphrases"`
}
