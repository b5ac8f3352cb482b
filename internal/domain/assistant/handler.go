package assistant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
	"github.com/stoodioz/stoodioz-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

// NewHandler creates assistant handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type commandRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(&req); details != nil {
		response.ValidationError(w, details)
		return
	}

	response.OK(w, h.svc.ParseCommand(r.Context(), req.Text))
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/command", h.Command)
	return r
}
