package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service handles notification logic
type Service struct {
	repo Repository
}

// NewService creates notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a notification
func (s *Service) Create(ctx context.Context, userID uuid.UUID, notifType Type, title, body string, data *NotificationData) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// List returns notifications for user
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Dismiss deletes a notification
func (s *Service) Dismiss(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

// --- Helper methods for creating specific notifications ---

// NotifyBookingRequest tells an engineer there is a job waiting for them
func (s *Service) NotifyBookingRequest(ctx context.Context, engineerID uuid.UUID, stoodioName string, bookingID uuid.UUID) {
	s.Create(ctx, engineerID, TypeBookingRequest,
		"New session request",
		"An artist wants you on a session at "+stoodioName,
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifyBookingConfirmed tells the payer their session is locked in
func (s *Service) NotifyBookingConfirmed(ctx context.Context, payerID uuid.UUID, stoodioName string, bookingID uuid.UUID) {
	s.Create(ctx, payerID, TypeBookingConfirmed,
		"Session confirmed",
		"Your session at "+stoodioName+" is booked",
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifyBookingDenied tells the payer the requested engineer passed
func (s *Service) NotifyBookingDenied(ctx context.Context, payerID uuid.UUID, bookingID uuid.UUID) {
	s.Create(ctx, payerID, TypeBookingDenied,
		"Engineer unavailable",
		"The engineer you requested can't make it. We're searching for another engineer.",
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifyBookingCancelled tells a participant the session is off
func (s *Service) NotifyBookingCancelled(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID, refundCents int64) {
	body := "The session was cancelled."
	if refundCents > 0 {
		body = fmt.Sprintf("The session was cancelled. $%.2f was refunded.", float64(refundCents)/100)
	}
	s.Create(ctx, userID, TypeBookingCancelled, "Session cancelled", body,
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifySessionCompleted tells the payer the session wrapped
func (s *Service) NotifySessionCompleted(ctx context.Context, payerID uuid.UUID, bookingID uuid.UUID) {
	s.Create(ctx, payerID, TypeSessionCompleted,
		"Session completed",
		"Your session has ended. Thanks for recording with us!",
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifyPayoutSettled tells a payee their pending payout completed
func (s *Service) NotifyPayoutSettled(ctx context.Context, payeeID uuid.UUID, amountCents int64, transactionID uuid.UUID) {
	s.Create(ctx, payeeID, TypePayoutSettled,
		"Payout settled",
		fmt.Sprintf("$%.2f is now available in your wallet.", float64(amountCents)/100),
		&NotificationData{TransactionID: &transactionID},
	)
}

// NotifyTipReceived tells an engineer they were tipped
func (s *Service) NotifyTipReceived(ctx context.Context, engineerID uuid.UUID, amountCents int64, bookingID uuid.UUID) {
	s.Create(ctx, engineerID, TypeTipReceived,
		"You got a tip!",
		fmt.Sprintf("An artist tipped you $%.2f.", float64(amountCents)/100),
		&NotificationData{BookingID: &bookingID},
	)
}

// NotifyNewMessage tells a user about a new chat message
func (s *Service) NotifyNewMessage(ctx context.Context, userID uuid.UUID, senderName, preview string, conversationID, messageID uuid.UUID) {
	s.Create(ctx, userID, TypeNewMessage,
		"New message from "+senderName,
		preview,
		&NotificationData{ConversationID: &conversationID, MessageID: &messageID},
	)
}
