package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

// NewHandler creates user handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

type rateRequest struct {
	HourlyRateCents int64 `json:"hourly_rate_cents" validate:"required,gt=0"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, u)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, u)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req availabilityRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	u, err := h.svc.SetAvailability(r.Context(), userID, req.Available)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, u)
}

func (h *Handler) SetHourlyRate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req rateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	u, err := h.svc.SetHourlyRate(r.Context(), userID, req.HourlyRateCents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, u)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "user not found")
	case errors.Is(err, ErrNotAnEngineerAccount), errors.Is(err, ErrInvalidRate):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.Me)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireEngineer()).Patch("/me/availability", h.SetAvailability)
	r.With(middleware.RequireEngineer()).Patch("/me/rate", h.SetHourlyRate)
	return r
}
