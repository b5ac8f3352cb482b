package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/stoodioz/stoodioz-api/internal/domain/user"
)

type memRepo struct {
	conversations map[uuid.UUID]*Conversation
	participants  map[uuid.UUID][]uuid.UUID
	messages      []*Message
}

func newMemRepo() *memRepo {
	return &memRepo{
		conversations: make(map[uuid.UUID]*Conversation),
		participants:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *memRepo) CreateConversation(_ context.Context, c *Conversation, participantIDs []uuid.UUID) error {
	r.conversations[c.ID] = c
	r.participants[c.ID] = participantIDs
	return nil
}

func (r *memRepo) GetConversation(_ context.Context, id uuid.UUID) (*Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return c, nil
}

func (r *memRepo) FindDirectConversation(_ context.Context, a, b uuid.UUID) (*Conversation, error) {
	for id, c := range r.conversations {
		if c.BookingID.Valid {
			continue
		}
		p := r.participants[id]
		if len(p) == 2 && contains(p, a) && contains(p, b) {
			return c, nil
		}
	}
	return nil, ErrConversationNotFound
}

func (r *memRepo) ListConversations(_ context.Context, userID uuid.UUID) ([]*Conversation, error) {
	var out []*Conversation
	for id, c := range r.conversations {
		if contains(r.participants[id], userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return contains(r.participants[conversationID], userID), nil
}

func (r *memRepo) ListParticipants(_ context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	return r.participants[conversationID], nil
}

func (r *memRepo) CreateMessage(_ context.Context, m *Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *memRepo) ListMessages(_ context.Context, conversationID uuid.UUID, _, _ int) ([]*Message, error) {
	var out []*Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type usersStub struct {
	byID map[uuid.UUID]*user.User
}

func (u *usersStub) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	found, ok := u.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return found, nil
}

type notifierStub struct {
	notified []uuid.UUID
}

func (n *notifierStub) NotifyNewMessage(_ context.Context, userID uuid.UUID, _, _ string, _, _ uuid.UUID) {
	n.notified = append(n.notified, userID)
}

func newTestService(users *usersStub, notifier *notifierStub) (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, NewHub(nil), users, notifier), repo
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	alice, bob, eve := uuid.New(), uuid.New(), uuid.New()
	users := &usersStub{byID: map[uuid.UUID]*user.User{}}
	svc, repo := newTestService(users, &notifierStub{})

	c := &Conversation{ID: uuid.New(), CreatedAt: time.Now()}
	repo.CreateConversation(context.Background(), c, []uuid.UUID{alice, bob})

	_, err := svc.SendMessage(context.Background(), eve, c.ID, "hi")
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("err = %v, want ErrNotParticipant", err)
	}
}

func TestSendMessageNotifiesOfflineParticipants(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	users := &usersStub{byID: map[uuid.UUID]*user.User{
		alice: {ID: alice, DisplayName: "Alice"},
	}}
	notifier := &notifierStub{}
	svc, repo := newTestService(users, notifier)

	c := &Conversation{ID: uuid.New(), CreatedAt: time.Now()}
	repo.CreateConversation(context.Background(), c, []uuid.UUID{alice, bob})

	m, err := svc.SendMessage(context.Background(), alice, c.ID, "  see you at the session  ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.Body != "see you at the session" {
		t.Errorf("body = %q, want trimmed", m.Body)
	}

	if len(notifier.notified) != 1 || notifier.notified[0] != bob {
		t.Errorf("notified = %v, want only bob", notifier.notified)
	}
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	svc, _ := newTestService(&usersStub{byID: map[uuid.UUID]*user.User{}}, &notifierStub{})

	_, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestOpenDirectReusesExistingConversation(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	users := &usersStub{byID: map[uuid.UUID]*user.User{
		alice: {ID: alice},
		bob:   {ID: bob},
	}}
	svc, _ := newTestService(users, &notifierStub{})

	first, err := svc.OpenDirect(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := svc.OpenDirect(context.Background(), bob, alice)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first.ID != second.ID {
		t.Error("expected the same conversation both ways")
	}
}

func TestOpenDirectRejectsSelf(t *testing.T) {
	id := uuid.New()
	svc, _ := newTestService(&usersStub{byID: map[uuid.UUID]*user.User{id: {ID: id}}}, &notifierStub{})

	_, err := svc.OpenDirect(context.Background(), id, id)
	if !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("err = %v, want ErrSelfConversation", err)
	}
}

func TestCreateBookingConversationIncludesAllMembers(t *testing.T) {
	svc, repo := newTestService(&usersStub{byID: map[uuid.UUID]*user.User{}}, &notifierStub{})

	bookingID := uuid.New()
	members := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	if err := svc.CreateBookingConversation(context.Background(), bookingID, members); err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(repo.conversations) != 1 {
		t.Fatalf("conversations = %d, want 1", len(repo.conversations))
	}
	for id, c := range repo.conversations {
		if !c.BookingID.Valid || c.BookingID.UUID != bookingID {
			t.Error("booking id not linked")
		}
		if len(repo.participants[id]) != 3 {
			t.Errorf("participants = %d, want 3", len(repo.participants[id]))
		}
	}
}

func TestTruncatePreviewKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("ф", 100)
	got := truncatePreview(long, 80)
	if !utf8.ValidString(got) {
		t.Fatal("preview is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != 80 {
		t.Errorf("preview length = %d runes, want 80", n)
	}
	if short := "короткое"; truncatePreview(short, 80) != short {
		t.Error("short body must pass through unchanged")
	}
}
