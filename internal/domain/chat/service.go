package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/domain/user"
)

// Notifier pushes the new-message notification to offline participants.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, userID uuid.UUID, senderName, preview string, conversationID, messageID uuid.UUID)
}

// UserDirectory resolves display names for message previews.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service struct {
	repo     Repository
	hub      *Hub
	users    UserDirectory
	notifier Notifier
}

func NewService(repo Repository, hub *Hub, users UserDirectory, notifier Notifier) *Service {
	return &Service{repo: repo, hub: hub, users: users, notifier: notifier}
}

// CreateBookingConversation opens the group chat for a confirmed session
// with every session member in it.
func (s *Service) CreateBookingConversation(ctx context.Context, bookingID uuid.UUID, participantIDs []uuid.UUID) error {
	c := &Conversation{
		ID:        uuid.New(),
		BookingID: uuid.NullUUID{UUID: bookingID, Valid: true},
		Title:     "Session chat",
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateConversation(ctx, c, participantIDs); err != nil {
		return err
	}

	log.Info().
		Str("conversation_id", c.ID.String()).
		Str("booking_id", bookingID.String()).
		Int("participants", len(participantIDs)).
		Msg("session conversation created")
	return nil
}

// OpenDirect finds the existing 1:1 conversation between two users or
// creates one.
func (s *Service) OpenDirect(ctx context.Context, userID, otherID uuid.UUID) (*Conversation, error) {
	if userID == otherID {
		return nil, ErrSelfConversation
	}
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindDirectConversation(ctx, userID, otherID)
	if err == nil {
		return existing, nil
	}
	if err != ErrConversationNotFound {
		return nil, err
	}

	c := &Conversation{
		ID:        uuid.New(),
		Title:     "Direct chat",
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateConversation(ctx, c, []uuid.UUID{userID, otherID}); err != nil {
		return nil, err
	}
	return c, nil
}

// SendMessage persists the message, pushes it to connected participants and
// notifies the rest.
func (s *Service) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	ok, err := s.repo.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	m := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	s.hub.Broadcast(conversationID, &Event{
		Type:           EventNewMessage,
		ConversationID: conversationID,
		SenderID:       senderID,
		Message:        m,
	})

	senderName := "Someone"
	if sender, err := s.users.GetByID(ctx, senderID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}
	preview := truncatePreview(body, 80)

	participants, err := s.repo.ListParticipants(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("failed to list participants for notification")
		return m, nil
	}
	for _, p := range participants {
		if p == senderID || s.hub.IsOnline(p) {
			continue
		}
		s.notifier.NotifyNewMessage(ctx, p, senderName, preview, conversationID, m.ID)
	}

	return m, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

// ListMessages returns a page of a conversation's history to a participant.
func (s *Service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	ok, err := s.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

// truncatePreview cuts the body to at most max runes for the notification
// line without splitting a multi-byte character.
func truncatePreview(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max])
}
