package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stoodioz/stoodioz-api/internal/domain/stoodio"
	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/domain/wallet"
)

// WalletService is the slice of the ledger the booking flow needs.
type WalletService interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int64, category wallet.Category, description, referenceID string, bookingID uuid.NullUUID) (*wallet.Transaction, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, category wallet.Category, status wallet.Status, description, referenceID string, bookingID uuid.NullUUID) (*wallet.Transaction, error)
}

// Notifier delivers the in-app notifications each transition fires.
type Notifier interface {
	NotifyBookingRequest(ctx context.Context, engineerID uuid.UUID, stoodioName string, bookingID uuid.UUID)
	NotifyBookingConfirmed(ctx context.Context, payerID uuid.UUID, stoodioName string, bookingID uuid.UUID)
	NotifyBookingDenied(ctx context.Context, payerID uuid.UUID, bookingID uuid.UUID)
	NotifyBookingCancelled(ctx context.Context, userID uuid.UUID, bookingID uuid.UUID, refundCents int64)
	NotifySessionCompleted(ctx context.Context, payerID uuid.UUID, bookingID uuid.UUID)
	NotifyTipReceived(ctx context.Context, engineerID uuid.UUID, amountCents int64, bookingID uuid.UUID)
}

// ConversationCreator opens the session group chat once a booking confirms.
type ConversationCreator interface {
	CreateBookingConversation(ctx context.Context, bookingID uuid.UUID, participantIDs []uuid.UUID) error
}

// StoodioCatalog resolves the stoodio and room a booking points at.
type StoodioCatalog interface {
	ResolveRoom(ctx context.Context, stoodioID, roomID uuid.UUID) (*stoodio.Stoodio, *stoodio.Room, error)
}

// EngineerDirectory looks up engineers for request resolution.
type EngineerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FirstAvailableEngineer(ctx context.Context) (*user.User, error)
}

// SubscriptionGate decides whether an engineer's tier lets them take work.
type SubscriptionGate interface {
	CheckCanAccept(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	repo          Repository
	stoodioz      StoodioCatalog
	engineers     EngineerDirectory
	wallets       WalletService
	subscriptions SubscriptionGate
	conversations ConversationCreator
	notifier      Notifier

	serviceFeePercent   int
	defaultEngineerRate int64
}

func NewService(
	repo Repository,
	stoodioz StoodioCatalog,
	engineers EngineerDirectory,
	wallets WalletService,
	subscriptions SubscriptionGate,
	conversations ConversationCreator,
	notifier Notifier,
	serviceFeePercent int,
	defaultEngineerRate int64,
) *Service {
	return &Service{
		repo:                repo,
		stoodioz:            stoodioz,
		engineers:           engineers,
		wallets:             wallets,
		subscriptions:       subscriptions,
		conversations:       conversations,
		notifier:            notifier,
		serviceFeePercent:   serviceFeePercent,
		defaultEngineerRate: defaultEngineerRate,
	}
}

// Create builds a booking from the request, resolving the engineer and price
// according to the request type, then fires the side effects of the state it
// lands in. FIND_AVAILABLE with no engineer online lands in PENDING on the
// open board, priced with the default engineer rate.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, actorRole string, req *CreateBookingRequest) (*Booking, error) {
	if actorRole != string(user.RoleArtist) && actorRole != string(user.RoleProducer) {
		return nil, ErrRoleCannotBook
	}
	if req.DurationHours < 1 {
		return nil, ErrInvalidDuration
	}

	st, room, err := s.stoodioz.ResolveRoom(ctx, req.StoodioID, req.RoomID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &Booking{
		ID:                     uuid.New(),
		StoodioID:              st.ID,
		RoomID:                 room.ID,
		BookedByID:             actorID,
		BookedByRole:           actorRole,
		StartTime:              req.StartTime,
		DurationHours:          req.DurationHours,
		RequestType:            RequestType(req.RequestType),
		PullUpFee:              req.PullUpFeeCents,
		InstrumentalsPurchased: req.InstrumentalsPurchased,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if req.MixingDetails != "" {
		b.MixingDetails.String = req.MixingDetails
		b.MixingDetails.Valid = true
	}
	if actorRole == string(user.RoleProducer) {
		b.ProducerID = uuid.NullUUID{UUID: actorID, Valid: true}
	} else if req.ProducerID != nil {
		b.ProducerID = uuid.NullUUID{UUID: *req.ProducerID, Valid: true}
	}

	var engineerRate int64
	switch b.RequestType {
	case RequestBringYourOwn:
		// Outside engineer, not on the platform payroll.
		b.Status = StatusConfirmed

	case RequestSpecificEngineer:
		if req.EngineerID == nil {
			return nil, ErrEngineerRequired
		}
		eng, err := s.engineers.GetByID(ctx, *req.EngineerID)
		if err != nil {
			return nil, err
		}
		if !eng.IsEngineer() {
			return nil, ErrNotAnEngineer
		}
		engineerRate = eng.PayRate(s.defaultEngineerRate)
		if actorRole == string(user.RoleProducer) {
			// Producers book on behalf of a session they run, so the
			// engineer is committed without an approval round trip.
			b.EngineerID = uuid.NullUUID{UUID: eng.ID, Valid: true}
			b.Status = StatusConfirmed
		} else {
			b.RequestedEngineerID = uuid.NullUUID{UUID: eng.ID, Valid: true}
			b.Status = StatusPendingApproval
		}

	case RequestFindAvailable:
		eng, err := s.engineers.FirstAvailableEngineer(ctx)
		switch {
		case err == nil:
			engineerRate = eng.PayRate(s.defaultEngineerRate)
			b.EngineerID = uuid.NullUUID{UUID: eng.ID, Valid: true}
			b.Status = StatusConfirmed
		case errors.Is(err, user.ErrUserNotFound):
			// Nobody online right now: post to the open board at the
			// default rate and let an engineer claim it.
			engineerRate = s.defaultEngineerRate
			b.Status = StatusPending
		default:
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown request type %q", req.RequestType)
	}

	p := ComputePricing(room.Rate(st.HourlyRate), engineerRate, b.DurationHours, s.serviceFeePercent, b.PullUpFee)
	b.StoodioCost = p.StoodioCost
	b.EngineerFee = p.EngineerFee
	b.ServiceFee = p.ServiceFee
	b.TotalCost = p.Total
	b.EngineerPayRate = engineerRate

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("status", string(b.Status)).
		Str("request_type", string(b.RequestType)).
		Int64("total_cents", b.TotalCost).
		Msg("booking created")

	switch b.Status {
	case StatusConfirmed:
		s.confirm(ctx, b, st)
	case StatusPendingApproval:
		s.notifier.NotifyBookingRequest(ctx, b.RequestedEngineerID.UUID, st.Name, b.ID)
	}

	return b, nil
}

// Accept lets an engineer take a session. For open PENDING bookings the
// database update is the arbiter: whichever engineer's conditional write
// lands first wins and everyone else gets an invalid transition back.
func (s *Service) Accept(ctx context.Context, engineerID, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.CheckCanAccept(ctx, engineerID); err != nil {
		return nil, err
	}

	var won bool
	switch b.Status {
	case StatusPending:
		won, err = s.repo.AcceptOpen(ctx, bookingID, engineerID)
	case StatusPendingApproval:
		if !b.RequestedEngineerID.Valid || b.RequestedEngineerID.UUID != engineerID {
			return nil, invalidTransition(b.Status, "accept", "booking was requested for a different engineer")
		}
		won, err = s.repo.AcceptRequested(ctx, bookingID, engineerID)
	default:
		return nil, invalidTransition(b.Status, "accept", "booking is not open for acceptance")
	}
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, invalidTransition(b.Status, "accept", "another engineer confirmed this booking first")
	}

	b, err = s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	st, _, err := s.stoodioz.ResolveRoom(ctx, b.StoodioID, b.RoomID)
	if err != nil {
		return nil, err
	}
	s.confirm(ctx, b, st)

	log.Info().
		Str("booking_id", b.ID.String()).
		Str("engineer_id", engineerID.String()).
		Msg("booking accepted")
	return b, nil
}

// Deny sends a requested session back to the open board with the requested
// engineer cleared, so the payer is not stuck in PENDING_APPROVAL.
func (s *Service) Deny(ctx context.Context, engineerID, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusPendingApproval {
		return nil, invalidTransition(b.Status, "deny", "only requested sessions can be denied")
	}

	ok, err := s.repo.Deny(ctx, bookingID, engineerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransition(b.Status, "deny", "booking is no longer awaiting this engineer")
	}

	s.notifier.NotifyBookingDenied(ctx, b.BookedByID, b.ID)

	return s.repo.GetByID(ctx, bookingID)
}

// Cancel moves any non-terminal booking to CANCELLED. The refund step
// function applies only when the payer had actually been charged, which
// means the booking reached CONFIRMED.
func (s *Service) Cancel(ctx context.Context, actorID, bookingID uuid.UUID) (*Booking, int64, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, 0, err
	}
	if b.BookedByID != actorID {
		return nil, 0, ErrNotPayer
	}
	if b.IsTerminal() {
		return nil, 0, invalidTransition(b.Status, "cancel", "booking already finished")
	}

	// The refund decision uses the status returned by the conditional
	// update, not the earlier read, so an accept landing in between still
	// gets refunded.
	prior, ok, err := s.repo.TransitionStatus(ctx, bookingID,
		[]Status{StatusPending, StatusPendingApproval, StatusConfirmed}, StatusCancelled)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, invalidTransition(b.Status, "cancel", "booking already finished")
	}

	var refund int64
	if prior == StatusConfirmed {
		refund = b.RefundAmount(time.Until(b.StartTime))
		if refund > 0 {
			ref := fmt.Sprintf("booking:%s:refund", b.ID)
			_, err := s.wallets.Credit(ctx, b.BookedByID, refund, wallet.CategoryRefund, wallet.StatusCompleted,
				"Refund for cancelled session", ref, uuid.NullUUID{UUID: b.ID, Valid: true})
			if err != nil {
				log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to credit cancellation refund")
			}
		}
	}

	s.notifier.NotifyBookingCancelled(ctx, b.BookedByID, b.ID, refund)

	log.Info().
		Str("booking_id", b.ID.String()).
		Int64("refund_cents", refund).
		Msg("booking cancelled")

	b, err = s.repo.GetByID(ctx, bookingID)
	return b, refund, err
}

// Complete ends a confirmed session and queues the payouts: the stoodio
// owner gets the room cost plus any pull up fee, the engineer their fee.
// Payouts enter the ledger as PENDING and settle on the scheduler.
func (s *Service) Complete(ctx context.Context, actorID, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	allowed := (b.EngineerID.Valid && b.EngineerID.UUID == actorID) ||
		(b.RequestType == RequestBringYourOwn && b.BookedByID == actorID)
	if !allowed {
		return nil, ErrNotSessionMember
	}
	if b.Status != StatusConfirmed {
		return nil, invalidTransition(b.Status, "complete", "only confirmed sessions can be completed")
	}

	_, ok, err := s.repo.TransitionStatus(ctx, bookingID, []Status{StatusConfirmed}, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransition(b.Status, "complete", "booking is no longer confirmed")
	}

	st, _, err := s.stoodioz.ResolveRoom(ctx, b.StoodioID, b.RoomID)
	if err != nil {
		return nil, err
	}

	bookingRef := uuid.NullUUID{UUID: b.ID, Valid: true}
	stoodioPayout := b.StoodioCost + b.PullUpFee
	_, err = s.wallets.Credit(ctx, st.OwnerID, stoodioPayout, wallet.CategorySessionPayout, wallet.StatusPending,
		"Session payout for "+st.Name, fmt.Sprintf("booking:%s:payout:stoodio", b.ID), bookingRef)
	if err != nil {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to queue stoodio payout")
	}

	if b.EngineerID.Valid && b.EngineerFee > 0 {
		_, err = s.wallets.Credit(ctx, b.EngineerID.UUID, b.EngineerFee, wallet.CategorySessionPayout, wallet.StatusPending,
			"Engineer payout for session at "+st.Name, fmt.Sprintf("booking:%s:payout:engineer", b.ID), bookingRef)
		if err != nil {
			log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to queue engineer payout")
		}
	}

	s.notifier.NotifySessionCompleted(ctx, b.BookedByID, b.ID)

	log.Info().
		Str("booking_id", b.ID.String()).
		Int64("stoodio_payout_cents", stoodioPayout).
		Int64("engineer_payout_cents", b.EngineerFee).
		Msg("session completed")

	return s.repo.GetByID(ctx, bookingID)
}

// Tip moves cents from the payer to the session engineer immediately, both
// sides COMPLETED. Tips are allowed while the session is confirmed or after
// it completed, and stack on repeat.
func (s *Service) Tip(ctx context.Context, actorID, bookingID uuid.UUID, amountCents int64) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BookedByID != actorID {
		return nil, ErrNotPayer
	}
	if !b.EngineerID.Valid {
		return nil, ErrNoEngineerBound
	}
	if b.Status != StatusConfirmed && b.Status != StatusCompleted {
		return nil, invalidTransition(b.Status, "tip", "session is not active or completed")
	}

	tipID := uuid.New()
	bookingRef := uuid.NullUUID{UUID: b.ID, Valid: true}
	_, err = s.wallets.Debit(ctx, b.BookedByID, amountCents, wallet.CategoryTipPayment,
		"Tip for session engineer", fmt.Sprintf("tip:%s:payment", tipID), bookingRef)
	if err != nil {
		return nil, err
	}
	_, err = s.wallets.Credit(ctx, b.EngineerID.UUID, amountCents, wallet.CategoryTipPayout, wallet.StatusCompleted,
		"Tip received", fmt.Sprintf("tip:%s:payout", tipID), bookingRef)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddTip(ctx, bookingID, amountCents); err != nil {
		return nil, err
	}

	s.notifier.NotifyTipReceived(ctx, b.EngineerID.UUID, amountCents, b.ID)

	return s.repo.GetByID(ctx, bookingID)
}

// Get returns a booking to one of its members.
func (s *Service) Get(ctx context.Context, actorID, bookingID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BookedByID == actorID ||
		(b.EngineerID.Valid && b.EngineerID.UUID == actorID) ||
		(b.RequestedEngineerID.Valid && b.RequestedEngineerID.UUID == actorID) ||
		(b.ProducerID.Valid && b.ProducerID.UUID == actorID) {
		return b, nil
	}
	st, _, err := s.stoodioz.ResolveRoom(ctx, b.StoodioID, b.RoomID)
	if err == nil && st.OwnerID == actorID {
		return b, nil
	}
	return nil, ErrNotSessionMember
}

// List returns bookings the user participates in, newest start first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// ListOpen returns the open job board of PENDING sessions.
func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]*Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListOpen(ctx, limit, offset)
}

// confirm runs the side effects of reaching CONFIRMED: charge the payer,
// open the session group chat and tell the payer. Side effect failures are
// logged, the booking itself already committed.
func (s *Service) confirm(ctx context.Context, b *Booking, st *stoodio.Stoodio) {
	ref := fmt.Sprintf("booking:%s:payment", b.ID)
	_, err := s.wallets.Debit(ctx, b.BookedByID, b.TotalCost, wallet.CategorySessionPayment,
		"Session at "+st.Name, ref, uuid.NullUUID{UUID: b.ID, Valid: true})
	if err != nil && !errors.Is(err, wallet.ErrDuplicateReference) {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to charge session payment")
	}

	participants := []uuid.UUID{b.BookedByID, st.OwnerID}
	if b.EngineerID.Valid {
		participants = append(participants, b.EngineerID.UUID)
	}
	if b.ProducerID.Valid && b.ProducerID.UUID != b.BookedByID {
		participants = append(participants, b.ProducerID.UUID)
	}
	if err := s.conversations.CreateBookingConversation(ctx, b.ID, participants); err != nil {
		log.Error().Err(err).Str("booking_id", b.ID.String()).Msg("failed to create session conversation")
	}

	s.notifier.NotifyBookingConfirmed(ctx, b.BookedByID, st.Name, b.ID)
}
