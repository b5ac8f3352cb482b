package stoodio

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/validator"
)

// Handler handles stoodio catalog HTTP requests
type Handler struct {
	svc *Service
}

// NewHandler creates stoodio handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateStoodioRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	st, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, st)
}

func (h *Handler) AddRoom(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	stoodioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid stoodio ID")
		return
	}

	var req CreateRoomRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	room, err := h.svc.AddRoom(r.Context(), userID, stoodioID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrStoodioNotFound):
			response.NotFound(w, "stoodio not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "you do not own this stoodio")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, room)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid stoodio ID")
		return
	}

	st, rooms, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrStoodioNotFound) {
			response.NotFound(w, "stoodio not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"stoodio": st, "rooms": rooms})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	stoodioz, err := h.svc.List(r.Context(), r.URL.Query().Get("city"), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"stoodioz": stoodioz})
}

// Routes returns stoodio router. Listing browse is public; mutation requires
// a stoodio-owner account.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireStoodioOwner())
		r.Post("/", h.Create)
		r.Post("/{id}/rooms", h.AddRoom)
	})

	return r
}
