package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/stoodioz/stoodioz-api/internal/domain/subscription"
	"github.com/stoodioz/stoodioz-api/internal/domain/wallet"
)

type memRepo struct {
	byID      map[uuid.UUID]*Payment
	bySession map[string]*Payment
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]*Payment), bySession: make(map[string]*Payment)}
}

func (r *memRepo) Create(_ context.Context, p *Payment) error {
	cp := *p
	r.byID[p.ID] = &cp
	r.bySession[p.CheckoutSessionID] = &cp
	return nil
}

func (r *memRepo) GetBySessionID(_ context.Context, sessionID string) (*Payment, error) {
	p, ok := r.bySession[sessionID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*Payment, error) {
	var out []*Payment
	for _, p := range r.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) MarkCompleted(_ context.Context, id uuid.UUID) (bool, error) {
	p, ok := r.byID[id]
	if !ok || p.Status != StatusCreated {
		return false, nil
	}
	p.Status = StatusCompleted
	return true, nil
}

func (r *memRepo) ExpireStale(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range r.byID {
		if p.Status == StatusCreated && p.CreatedAt.Before(cutoff) {
			p.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type checkoutStub struct {
	calls int
	fail  bool
}

func (c *checkoutStub) Create(_ context.Context, _ *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("stripe unavailable")
	}
	return &stripe.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", c.calls),
		URL: "https://checkout.stripe.test/session",
	}, nil
}

type walletStub struct {
	credits  []int64
	failNext bool
	refs     map[string]bool
}

func (w *walletStub) Credit(_ context.Context, _ uuid.UUID, amount int64, _ wallet.Category, _ wallet.Status, _, referenceID string, _ uuid.NullUUID) (*wallet.Transaction, error) {
	if w.failNext {
		w.failNext = false
		return nil, errors.New("wallet unavailable")
	}
	if w.refs == nil {
		w.refs = make(map[string]bool)
	}
	if w.refs[referenceID] {
		return nil, wallet.ErrDuplicateReference
	}
	w.refs[referenceID] = true
	w.credits = append(w.credits, amount)
	return &wallet.Transaction{}, nil
}

type tiersStub struct {
	subscribed map[uuid.UUID]subscription.Tier
}

func (t *tiersStub) Subscribe(_ context.Context, userID uuid.UUID, tier subscription.Tier) (*subscription.Subscription, error) {
	t.subscribed[userID] = tier
	return &subscription.Subscription{UserID: userID, Tier: tier}, nil
}

func newTestService() (*Service, *memRepo, *walletStub, *tiersStub) {
	repo := newMemRepo()
	wallets := &walletStub{}
	tiers := &tiersStub{subscribed: make(map[uuid.UUID]subscription.Tier)}
	svc := NewService(repo, &checkoutStub{}, wallets, tiers, "http://localhost/success", "http://localhost/cancel")
	return svc, repo, wallets, tiers
}

func TestAddFundsCompletesOnceCreditsWallet(t *testing.T) {
	svc, _, wallets, _ := newTestService()
	userID := uuid.New()

	p, err := svc.CreateAddFundsCheckout(context.Background(), userID, 5000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != StatusCreated || p.CheckoutURL == "" {
		t.Fatalf("payment = %+v, want created with checkout url", p)
	}
	if len(wallets.credits) != 0 {
		t.Fatal("wallet must not be credited before the webhook")
	}

	if err := svc.CompleteCheckout(context.Background(), p.CheckoutSessionID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(wallets.credits) != 1 || wallets.credits[0] != 5000 {
		t.Fatalf("credits = %v, want one credit of 5000", wallets.credits)
	}

	// Webhook redelivery must not double credit.
	if err := svc.CompleteCheckout(context.Background(), p.CheckoutSessionID); err != nil {
		t.Fatalf("duplicate complete: %v", err)
	}
	if len(wallets.credits) != 1 {
		t.Fatalf("credits = %v, duplicate webhook credited again", wallets.credits)
	}
}

func TestAddFundsCreditRetriedAfterTransientFailure(t *testing.T) {
	svc, repo, wallets, _ := newTestService()
	userID := uuid.New()

	p, err := svc.CreateAddFundsCheckout(context.Background(), userID, 5000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// First delivery fails the wallet credit. The payment row must stay
	// CREATED so the redelivery can pick it up.
	wallets.failNext = true
	if err := svc.CompleteCheckout(context.Background(), p.CheckoutSessionID); err == nil {
		t.Fatal("expected credit failure to surface")
	}
	if repo.byID[p.ID].Status != StatusCreated {
		t.Fatalf("status = %s after failed credit, want CREATED", repo.byID[p.ID].Status)
	}
	if len(wallets.credits) != 0 {
		t.Fatalf("credits = %v, want none after failed delivery", wallets.credits)
	}

	// Stripe redelivers and the top up lands exactly once.
	if err := svc.CompleteCheckout(context.Background(), p.CheckoutSessionID); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(wallets.credits) != 1 || wallets.credits[0] != 5000 {
		t.Fatalf("credits = %v, want one credit of 5000", wallets.credits)
	}
	if repo.byID[p.ID].Status != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", repo.byID[p.ID].Status)
	}
}

func TestSubscriptionCheckoutActivatesTier(t *testing.T) {
	svc, _, _, tiers := newTestService()
	userID := uuid.New()

	p, err := svc.CreateSubscriptionCheckout(context.Background(), userID, subscription.TierPro)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.AmountCents != subscription.TierPro.MonthlyPriceCents() {
		t.Errorf("amount = %d, want tier price", p.AmountCents)
	}

	if err := svc.CompleteCheckout(context.Background(), p.CheckoutSessionID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tiers.subscribed[userID] != subscription.TierPro {
		t.Errorf("tier = %s, want PRO", tiers.subscribed[userID])
	}
}

func TestSubscriptionCheckoutRejectsFreeTier(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateSubscriptionCheckout(context.Background(), uuid.New(), subscription.TierFree)
	if !errors.Is(err, subscription.ErrUnknownTier) {
		t.Fatalf("err = %v, want ErrUnknownTier", err)
	}
}

func TestAddFundsRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateAddFundsCheckout(context.Background(), uuid.New(), 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestExpireStaleSweepsOldCheckouts(t *testing.T) {
	svc, repo, _, _ := newTestService()
	userID := uuid.New()

	p, _ := svc.CreateAddFundsCheckout(context.Background(), userID, 5000)
	repo.byID[p.ID].CreatedAt = time.Now().Add(-48 * time.Hour)

	if err := svc.ExpireStale(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if repo.byID[p.ID].Status != StatusExpired {
		t.Errorf("status = %s, want EXPIRED", repo.byID[p.ID].Status)
	}
}
