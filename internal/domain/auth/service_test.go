package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stoodioz/stoodioz-api/internal/domain/user"
	"github.com/stoodioz/stoodioz-api/internal/pkg/jwt"
)

type userRepoStub struct {
	byID    map[uuid.UUID]*user.User
	byEmail map[string]*user.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]*user.User),
	}
}

func (r *userRepoStub) Create(ctx context.Context, u *user.User) error {
	if _, ok := r.byID[u.ID]; ok {
		return errors.New("duplicate primary key")
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return user.ErrEmailAlreadyExists
	}
	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = &cp
	return nil
}

func (r *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepoStub) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepoStub) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func (r *userRepoStub) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return nil
}

func (r *userRepoStub) SetHourlyRate(ctx context.Context, id uuid.UUID, rateCents int64) error {
	return nil
}

func (r *userRepoStub) FirstAvailableEngineer(ctx context.Context) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func newTestService(repo user.Repository) *Service {
	return NewService(repo, jwt.NewService("test-secret", 15*time.Minute, 168*time.Hour))
}

func TestRegisterAssignsID(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:       "ana@example.com",
		Password:    "secret-pass",
		Role:        "artist",
		DisplayName: "Ana",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.User.ID == uuid.Nil {
		t.Fatal("registered user has zero UUID")
	}
	if _, err := repo.GetByID(context.Background(), resp.User.ID); err != nil {
		t.Fatalf("stored user not retrievable by id: %v", err)
	}
}

func TestRegisterIDsAreDistinct(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	first, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "one@example.com", Password: "secret-pass", Role: "artist", DisplayName: "One",
	})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "two@example.com", Password: "secret-pass", Role: "producer", DisplayName: "Two",
	})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if first.User.ID == second.User.ID {
		t.Fatal("two registrations share a user ID")
	}
}

func TestRegisterEngineerDefaultsAvailable(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)
	rate := int64(6500)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:           "eng@example.com",
		Password:        "secret-pass",
		Role:            "engineer",
		DisplayName:     "Eng",
		HourlyRateCents: &rate,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !resp.User.IsAvailable {
		t.Error("engineer not flagged available on signup")
	}
	if !resp.User.HourlyRate.Valid || resp.User.HourlyRate.Int64 != 6500 {
		t.Errorf("hourly rate = %+v, want 6500", resp.User.HourlyRate)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	repo := newUserRepoStub()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "ana@example.com", Password: "secret-pass", Role: "artist", DisplayName: "Ana",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: "ana@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("login did not issue a token pair")
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "ana@example.com", Password: "wrong"}); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: "secret-pass"}); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}
