package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lex-codes11/skipbot/internal/app"
	"github.com/lex-codes11/skipbot/internal/domain"
	"github.com/lex-codes11/skipbot/internal/metrics"
)

const signatureHeader = "X-Webhook-Signature"

// maxWebhookBody bounds what the confirmation source can make us buffer.
const maxWebhookBody = 64 << 10

// PurchaseConfirmer is the minimal interface the webhook needs.
type PurchaseConfirmer interface {
	ConfirmPurchase(ctx context.Context, in app.ConfirmPurchaseInput) (domain.Allocation, error)
}

// HandlePaymentWebhook receives payment confirmations. Delivery is
// at-least-once, so the handler leans on the engine's idempotency: a replay
// answers 200 with the original allocation, a first delivery answers 201.
func HandlePaymentWebhook(svc PurchaseConfirmer, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable body")
			return
		}

		if secret != "" && !verifySignature(body, r.Header.Get(signatureHeader), secret) {
			metrics.WebhookRejectsTotal.WithLabelValues("bad_signature").Inc()
			writeError(w, http.StatusUnauthorized, codeInvalidSignature, "invalid signature")
			return
		}

		var req paymentEventRequest
		if err := json.Unmarshal(body, &req); err != nil {
			metrics.WebhookRejectsTotal.WithLabelValues("bad_body").Inc()
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		allocation, err := svc.ConfirmPurchase(r.Context(), app.ConfirmPurchaseInput{
			ExternalID: req.ExternalID,
			HolderID:   req.HolderID,
			Venue:      req.Venue,
			NightHint:  req.Night,
		})
		if err != nil {
			observeConfirmFailure(req, err)
			writeDomainError(w, err)
			return
		}

		if allocation.Created {
			metrics.ConfirmationsTotal.WithLabelValues(string(allocation.Venue)).Inc()
		} else {
			metrics.DuplicateConfirmationsTotal.WithLabelValues(string(allocation.Venue)).Inc()
		}

		w.Header().Set("Content-Type", "application/json")
		if allocation.Created {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(allocationResponse(allocation))
	}
}

// observeConfirmFailure surfaces automated-event failures to the operator
// log; the buyer has already paid, so nobody upstream can meaningfully
// retry a sold-out rejection.
func observeConfirmFailure(req paymentEventRequest, err error) {
	// The raw client string hasn't been through venue resolution on this
	// path, so normalize before using it as a metric label.
	venue := strings.ToUpper(strings.TrimSpace(req.Venue))
	switch {
	case errors.Is(err, domain.ErrSoldOut):
		metrics.SoldOutRejectionsTotal.WithLabelValues(venue).Inc()
		log.Error().
			Str("external_id", req.ExternalID).
			Str("venue", venue).
			Msg("paid confirmation rejected: venue sold out, needs reconciliation")
	case errors.Is(err, domain.ErrStaleNightHint):
		metrics.WebhookRejectsTotal.WithLabelValues("stale_night").Inc()
		log.Warn().
			Str("external_id", req.ExternalID).
			Str("night", req.Night).
			Msg("payment event rejected: stale night hint")
	case errors.Is(err, domain.ErrIdempotencyConflict):
		log.Error().
			Str("external_id", req.ExternalID).
			Msg("payment event rejected: external id reused for a different holder")
	}
}

func verifySignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	sig, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}

// SignBody computes the hex signature the webhook expects; exported for the
// confirmation source's client and for tests.
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type paymentEventRequest struct {
	ExternalID string `json:"external_id"`
	HolderID   string `json:"holder_id"`
	Venue      string `json:"venue"`
	Night      string `json:"night"`
}

type allocationPayload struct {
	Night      string `json:"night"`
	NightLabel string `json:"night_label"`
	Venue      string `json:"venue"`
	Position   int    `json:"position"`
	Capacity   int    `json:"capacity"`
	Passphrase string `json:"passphrase"`
	HolderID   string `json:"holder_id"`
	ExternalID string `json:"external_id"`
}

func allocationResponse(a domain.Allocation) allocationPayload {
	return allocationPayload{
		Night:      a.Night.String(),
		NightLabel: a.Night.Human(),
		Venue:      string(a.Venue),
		Position:   a.Position,
		Capacity:   a.Capacity,
		Passphrase: a.Passphrase,
		HolderID:   a.HolderID,
		ExternalID: a.ExternalID,
	}
}
