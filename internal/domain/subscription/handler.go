package subscription

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

// NewHandler creates subscription handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type subscribeRequest struct {
	Tier string `json:"tier" validate:"required,tier"`
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	tier, err := h.svc.GetTier(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"tier":                tier,
		"can_accept_sessions": tier.CanAcceptSessions(),
	})
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
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	sub, err := h.svc.Subscribe(r.Context(), userID, Tier(req.Tier))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTier):
			response.BadRequest(w, "unknown tier")
		case errors.Is(err, ErrAlreadyOnTier):
			response.Conflict(w, "already subscribed to this tier")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, sub)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.GetMine)
	r.Post("/", h.Subscribe)
	return r
}
