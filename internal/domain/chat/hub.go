package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventNewMessage EventType = "new_message"
	EventTyping     EventType = "typing"
	EventOnline     EventType = "online"
	EventOffline    EventType = "offline"
)

const (
	conversationChannelPrefix = "chat:conversation:"
	presenceKey               = "chat:presence:online"
	presenceChannel           = "chat:presence"
)

// Event is the wire format pushed to websocket clients.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	SenderID       uuid.UUID `json:"sender_id,omitempty"`
	Message        *Message  `json:"message,omitempty"`
}

type Connection struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans events out to websocket clients. With Redis present it publishes
// through Pub/Sub so every server instance delivers to its own clients;
// without Redis it degrades to single-instance local delivery.
type Hub struct {
	connections   map[uuid.UUID]map[*Connection]bool
	subscriptions map[uuid.UUID]map[uuid.UUID]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections:   make(map[uuid.UUID]map[*Connection]bool),
		subscriptions: make(map[uuid.UUID]map[uuid.UUID]bool),
		redis:         redisClient,
		register:      make(chan *Connection),
		unregister:    make(chan *Connection),
		ctx:           ctx,
		cancel:        cancel,
	}

	if redisClient != nil {
		h.pubsub = redisClient.PSubscribe(ctx, conversationChannelPrefix+"*", presenceChannel)
	}
	return h
}

// Run owns the register/unregister loop. Call in a goroutine.
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()

			h.publishPresence(conn.UserID, true)
			log.Debug().Str("user_id", conn.UserID.String()).Msg("websocket client connected")

		case conn := <-h.unregister:
			lastConnection := false
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
					lastConnection = true
					// Conversation subscriptions are per user, so they
					// only go away with the user's last connection.
					for convID, users := range h.subscriptions {
						delete(users, conn.UserID)
						if len(users) == 0 {
							delete(h.subscriptions, convID)
						}
					}
				}
			}
			h.mu.Unlock()

			if lastConnection {
				h.publishPresence(conn.UserID, false)
			}
			log.Debug().Str("user_id", conn.UserID.String()).Msg("websocket client disconnected")
		}
	}
}

func (h *Hub) runSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			if len(msg.Channel) > len(conversationChannelPrefix) &&
				msg.Channel[:len(conversationChannelPrefix)] == conversationChannelPrefix {

				convID, err := uuid.Parse(msg.Channel[len(conversationChannelPrefix):])
				if err != nil {
					continue
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				h.deliverLocal(convID, &event)
			}
		}
	}
}

func (h *Hub) deliverLocal(conversationID uuid.UUID, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.subscriptions[conversationID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	for userID := range users {
		for conn := range h.connections[userID] {
			select {
			case conn.Send <- data:
			default:
				log.Warn().Str("user_id", userID.String()).Msg("websocket send buffer full, event dropped")
			}
		}
	}
}

func (h *Hub) Register(conn *Connection)   { h.register <- conn }
func (h *Hub) Unregister(conn *Connection) { h.unregister <- conn }

// Subscribe attaches the user's local connections to a conversation feed.
func (h *Hub) Subscribe(conversationID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[conversationID] == nil {
		h.subscriptions[conversationID] = make(map[uuid.UUID]bool)
	}
	h.subscriptions[conversationID][userID] = true
}

func (h *Hub) Unsubscribe(conversationID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users := h.subscriptions[conversationID]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.subscriptions, conversationID)
		}
	}
}

// Broadcast delivers the event to every participant on every instance.
func (h *Hub) Broadcast(conversationID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal websocket event")
		return
	}

	if h.redis != nil {
		channel := conversationChannelPrefix + conversationID.String()
		if err := h.redis.Publish(h.ctx, channel, data).Err(); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("redis publish failed, delivering locally")
			h.deliverLocal(conversationID, event)
		}
		return
	}

	h.deliverLocal(conversationID, event)
}

func (h *Hub) publishPresence(userID uuid.UUID, online bool) {
	if h.redis == nil {
		return
	}

	ctx := context.Background()
	if online {
		h.redis.SAdd(ctx, presenceKey, userID.String())
		h.redis.Expire(ctx, presenceKey, 5*time.Minute)
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:online", userID))
	} else {
		h.redis.SRem(ctx, presenceKey, userID.String())
		h.redis.Publish(ctx, presenceChannel, fmt.Sprintf("%s:offline", userID))
	}
}

// IsOnline checks presence across all instances when Redis is available.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	if h.redis == nil {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.connections[userID]) > 0
	}
	return h.redis.SIsMember(context.Background(), presenceKey, userID.String()).Val()
}

func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
