package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type repoStub struct {
	subs map[uuid.UUID]*Subscription
}

func newRepoStub() *repoStub {
	return &repoStub{subs: map[uuid.UUID]*Subscription{}}
}

func (r *repoStub) GetByUserID(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	return r.subs[userID], nil
}

func (r *repoStub) Upsert(_ context.Context, userID uuid.UUID, tier Tier) error {
	r.subs[userID] = &Subscription{UserID: userID, Tier: tier}
	return nil
}

func TestDefaultTierIsFree(t *testing.T) {
	svc := NewService(newRepoStub())

	tier, err := svc.GetTier(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if tier != TierFree {
		t.Fatalf("expected FREE, got %s", tier)
	}
}

func TestFreeTierCannotAccept(t *testing.T) {
	svc := NewService(newRepoStub())

	err := svc.CheckCanAccept(context.Background(), uuid.New())
	if !errors.Is(err, ErrUpgradeRequired) {
		t.Fatalf("expected ErrUpgradeRequired, got %v", err)
	}
}

func TestPaidTierCanAccept(t *testing.T) {
	repo := newRepoStub()
	svc := NewService(repo)
	userID := uuid.New()

	if _, err := svc.Subscribe(context.Background(), userID, TierPlus); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := svc.CheckCanAccept(context.Background(), userID); err != nil {
		t.Fatalf("expected accept allowed, got %v", err)
	}
}

func TestSubscribeRejectsUnknownTier(t *testing.T) {
	svc := NewService(newRepoStub())

	_, err := svc.Subscribe(context.Background(), uuid.New(), Tier("GOLD"))
	if !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestSubscribeSameTierConflicts(t *testing.T) {
	repo := newRepoStub()
	svc := NewService(repo)
	userID := uuid.New()

	if _, err := svc.Subscribe(context.Background(), userID, TierPro); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	_, err := svc.Subscribe(context.Background(), userID, TierPro)
	if !errors.Is(err, ErrAlreadyOnTier) {
		t.Fatalf("expected ErrAlreadyOnTier, got %v", err)
	}
}
