package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memRepo mirrors the balance/ledger atomic-pair contract in memory.
type memRepo struct {
	balances map[uuid.UUID]int64
	entries  []*Transaction
}

func newMemRepo() *memRepo {
	return &memRepo{balances: map[uuid.UUID]int64{}}
}

func (m *memRepo) Apply(_ context.Context, e Entry) (*Transaction, error) {
	for _, existing := range m.entries {
		if existing.UserID == e.UserID && existing.ReferenceID != nil && e.ReferenceID != "" && *existing.ReferenceID == e.ReferenceID {
			if existing.Amount != e.Amount {
				return nil, ErrReferenceConflict
			}
			return existing, nil
		}
	}

	next := m.balances[e.UserID] + e.Amount
	if e.EnforceFunds && next < 0 {
		return nil, ErrInsufficientFunds
	}

	entry := &Transaction{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Amount:      e.Amount,
		Category:    e.Category,
		Status:      e.Status,
		Description: e.Description,
		BookingID:   e.BookingID,
		CreatedAt:   time.Now(),
	}
	if e.ReferenceID != "" {
		ref := e.ReferenceID
		entry.ReferenceID = &ref
	}

	m.balances[e.UserID] = next
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *memRepo) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	return m.balances[userID], nil
}

func (m *memRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*Transaction, error) {
	var out []*Transaction
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) SettleDue(_ context.Context, cutoff time.Time) ([]*Transaction, error) {
	var settled []*Transaction
	for _, e := range m.entries {
		if e.Status == StatusPending && !e.CreatedAt.After(cutoff) {
			e.Status = StatusCompleted
			settled = append(settled, e)
		}
	}
	return settled, nil
}

func (m *memRepo) sum(userID uuid.UUID) int64 {
	var total int64
	for _, e := range m.entries {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total
}

func TestBalanceEqualsLedgerSum(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	userID := uuid.New()
	ctx := context.Background()

	ops := []struct {
		credit bool
		amount int64
		cat    Category
	}{
		{true, 50000, CategoryAddFunds},
		{false, 36400, CategorySessionPayment},
		{true, 18200, CategoryRefund},
		{false, 2000, CategoryTipPayment},
		{true, 10000, CategorySessionPayout},
	}

	for i, op := range ops {
		ref := fmt.Sprintf("op-%d", i)
		var err error
		if op.credit {
			_, err = svc.Credit(ctx, userID, op.amount, op.cat, StatusCompleted, "test", ref, uuid.NullUUID{})
		} else {
			_, err = svc.Debit(ctx, userID, op.amount, op.cat, "test", ref, uuid.NullUUID{})
		}
		if err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}

		balance, err := svc.GetBalance(ctx, userID)
		if err != nil {
			t.Fatalf("get balance failed: %v", err)
		}
		if balance != repo.sum(userID) {
			t.Fatalf("after op %d: balance %d != ledger sum %d", i, balance, repo.sum(userID))
		}
	}
}

func TestDebitAllowsNegativeBalance(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.New()

	if _, err := svc.Debit(context.Background(), userID, 36400, CategorySessionPayment, "session", "b-1", uuid.NullUUID{}); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	balance, _ := svc.GetBalance(context.Background(), userID)
	if balance != -36400 {
		t.Fatalf("expected balance -36400, got %d", balance)
	}
}

func TestWithdrawRequiresFunds(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.New()

	_, err := svc.Withdraw(context.Background(), userID, 100, "w-1")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := svc.Credit(context.Background(), userID, 500, CategoryAddFunds, StatusCompleted, "topup", "t-1", uuid.NullUUID{}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, err := svc.Withdraw(context.Background(), userID, 100, "w-2"); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	balance, _ := svc.GetBalance(context.Background(), userID)
	if balance != 400 {
		t.Fatalf("expected balance 400, got %d", balance)
	}
}

func TestIdempotentReference(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := svc.Credit(context.Background(), userID, 1000, CategoryAddFunds, StatusCompleted, "topup", "checkout-abc", uuid.NullUUID{}); err != nil {
			t.Fatalf("attempt %d failed: %v", i, err)
		}
	}

	balance, _ := svc.GetBalance(context.Background(), userID)
	if balance != 1000 {
		t.Fatalf("expected balance 1000 after idempotent retry, got %d", balance)
	}

	_, err := svc.Credit(context.Background(), userID, 2000, CategoryAddFunds, StatusCompleted, "topup", "checkout-abc", uuid.NullUUID{})
	if !errors.Is(err, ErrReferenceConflict) {
		t.Fatalf("expected ErrReferenceConflict, got %v", err)
	}
}

func TestSettleDueFlipsPendingOnly(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	userID := uuid.New()

	if _, err := svc.Credit(context.Background(), userID, 24000, CategorySessionPayout, StatusPending, "stoodio payout", "p-1", uuid.NullUUID{}); err != nil {
		t.Fatalf("pending credit failed: %v", err)
	}
	if _, err := svc.Credit(context.Background(), userID, 2000, CategoryTipPayout, StatusCompleted, "tip", "p-2", uuid.NullUUID{}); err != nil {
		t.Fatalf("completed credit failed: %v", err)
	}

	// Balance includes pending entries immediately.
	balance, _ := svc.GetBalance(context.Background(), userID)
	if balance != 26000 {
		t.Fatalf("expected balance 26000, got %d", balance)
	}

	settled, err := svc.SettleDue(context.Background(), 0)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if len(settled) != 1 {
		t.Fatalf("expected 1 settled entry, got %d", len(settled))
	}
	if settled[0].Category != CategorySessionPayout || settled[0].Status != StatusCompleted {
		t.Fatalf("unexpected settled entry: %+v", settled[0])
	}

	// Settlement does not change the balance.
	balance, _ = svc.GetBalance(context.Background(), userID)
	if balance != 26000 {
		t.Fatalf("expected balance 26000 after settlement, got %d", balance)
	}
}

func TestInvalidAmount(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.New()

	if _, err := svc.Debit(context.Background(), userID, 0, CategorySessionPayment, "x", "r", uuid.NullUUID{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Credit(context.Background(), userID, -5, CategoryRefund, StatusCompleted, "x", "r", uuid.NullUUID{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
