package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/stoodioz/stoodioz-api/internal/domain/subscription"
	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/validator"
)

type Handler struct {
	svc           *Service
	webhookSecret string
}

// NewHandler creates payment handler
func NewHandler(svc *Service, webhookSecret string) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret}
}

type addFundsRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type subscribeRequest struct {
	Tier string `json:"tier" validate:"required,tier"`
}

func (h *Handler) AddFunds(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req addFundsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p, err := h.svc.CreateAddFundsCheckout(r.Context(), userID, req.AmountCents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req subscribeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p, err := h.svc.CreateSubscriptionCheckout(r.Context(), userID, subscription.Tier(req.Tier))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.svc.ListPayments(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"payments": payments})
}

// Webhook receives Stripe events. Mounted outside the auth middleware; the
// signature check is the authentication.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Error().Err(err).Msg("failed to parse checkout session event")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.svc.CompleteCheckout(r.Context(), session.ID); err != nil && !errors.Is(err, ErrPaymentNotFound) {
			log.Error().Err(err).Str("session_id", session.ID).Msg("failed to complete checkout")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Debug().Str("event_type", string(event.Type)).Msg("unhandled stripe event")
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, err.Error())
	case errors.Is(err, subscription.ErrUnknownTier):
		response.BadRequest(w, "unknown subscription tier")
	case errors.Is(err, ErrCheckoutFailed):
		response.Error(w, http.StatusBadGateway, "CHECKOUT_FAILED", "payment provider unavailable")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/add-funds", h.AddFunds)
	r.Post("/subscribe", h.Subscribe)
	r.Get("/", h.List)
	return r
}
