package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoodioz/stoodioz-api/internal/domain/stoodio"
	"github.com/stoodioz/stoodioz-api/internal/domain/subscription"
	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

// NewHandler creates booking handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	role := middleware.GetRole(r.Context())

	var req CreateBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	b, err := h.svc.Create(r.Context(), userID, role, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, b)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	b, err := h.svc.Get(r.Context(), userID, bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.svc.List(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"bookings": bookings})
}

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.svc.ListOpen(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"bookings": bookings})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Accept)
}

func (h *Handler) Deny(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Deny)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

// transition is the shared shape of accept, deny and complete: actor plus
// booking id in, booking out.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, bookingID uuid.UUID) (*Booking, error)) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	b, err := op(r.Context(), userID, bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, b)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	b, refund, err := h.svc.Cancel(r.Context(), userID, bookingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"booking": b, "refund_cents": refund})
}

func (h *Handler) Tip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	var req TipRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	b, err := h.svc.Tip(r.Context(), userID, bookingID, req.AmountCents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, b)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var transition *InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		response.Conflict(w, transition.Error())
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "booking not found")
	case errors.Is(err, stoodio.ErrStoodioNotFound), errors.Is(err, stoodio.ErrRoomNotFound):
		response.NotFound(w, "stoodio or room not found")
	case errors.Is(err, stoodio.ErrRoomMismatch):
		response.BadRequest(w, "room does not belong to this stoodio")
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, "engineer not found")
	case errors.Is(err, subscription.ErrUpgradeRequired):
		response.PaymentRequired(w, "upgrade to Plus or Pro to accept sessions")
	case errors.Is(err, ErrRoleCannotBook),
		errors.Is(err, ErrNotPayer),
		errors.Is(err, ErrNotSessionMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrEngineerRequired),
		errors.Is(err, ErrNotAnEngineer),
		errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrNoEngineerBound):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/open", h.ListOpen)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireEngineer()).Post("/{id}/accept", h.Accept)
	r.With(middleware.RequireEngineer()).Post("/{id}/deny", h.Deny)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/tip", h.Tip)
	return r
}
