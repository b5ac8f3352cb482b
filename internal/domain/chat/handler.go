package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/middleware"
	"github.com/stoodioz/stoodioz-api/internal/pkg/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ReplySuggester produces short reply suggestions for a conversation.
type ReplySuggester interface {
	SuggestReplies(ctx context.Context, messages []string) ([]string, error)
}

type Handler struct {
	service   *Service
	hub       *Hub
	suggester ReplySuggester
	upgrader  websocket.Upgrader
}

// NewHandler creates chat handler
func NewHandler(service *Service, hub *Hub, suggester ReplySuggester) *Handler {
	return &Handler{
		service:   service,
		hub:       hub,
		suggester: suggester,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type openDirectRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"conversations": conversations})
}

func (h *Handler) OpenDirect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req openDirectRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	c, err := h.service.OpenDirect(r.Context(), userID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfConversation):
			response.BadRequest(w, err.Error())
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, "user not found")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, c)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.service.ListMessages(r.Context(), userID, conversationID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"messages": messages})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	var req sendMessageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	m, err := h.service.SendMessage(r.Context(), userID, conversationID, req.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, m)
}

// SmartReplies suggests replies from the tail of the conversation. On
// assistant failure it degrades to an empty list rather than an error.
func (h *Handler) SmartReplies(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	messages, err := h.service.ListMessages(r.Context(), userID, conversationID, 10, 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	bodies := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		bodies = append(bodies, messages[i].Body)
	}

	replies, err := h.suggester.SuggestReplies(r.Context(), bodies)
	if err != nil {
		log.Warn().Err(err).Msg("smart reply suggestion failed")
		replies = []string{}
	}
	response.OK(w, map[string]interface{}{"replies": replies})
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Connection{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	h.hub.Register(client)

	conversations, _ := h.service.ListConversations(r.Context(), userID)
	for _, c := range conversations {
		h.hub.Subscribe(c.ID, userID)
	}

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("websocket read error")
			}
			break
		}

		var event struct {
			Type           string    `json:"type"`
			ConversationID uuid.UUID `json:"conversation_id"`
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}

		if event.Type == "typing" {
			h.hub.Broadcast(event.ConversationID, &Event{
				Type:           EventTyping,
				ConversationID: event.ConversationID,
				SenderID:       client.UserID,
			})
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		response.NotFound(w, "conversation not found")
	case errors.Is(err, ErrNotParticipant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrEmptyMessage):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/conversations", h.ListConversations)
	r.Post("/conversations/direct", h.OpenDirect)
	r.Get("/conversations/{id}/messages", h.ListMessages)
	r.Post("/conversations/{id}/messages", h.SendMessage)
	r.Get("/conversations/{id}/smart-replies", h.SmartReplies)
	return r
}
