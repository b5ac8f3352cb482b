package notification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	rows map[uuid.UUID]*Notification
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]*Notification)}
}

func (r *memRepo) Create(_ context.Context, n *Notification) error {
	cp := *n
	r.rows[n.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Notification, error) {
	n, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*Notification, error) {
	var out []*Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memRepo) CountUnreadByUser(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) MarkAsRead(_ context.Context, id, userID uuid.UUID) error {
	if n, ok := r.rows[id]; ok && n.UserID == userID {
		n.IsRead = true
	}
	return nil
}

func (r *memRepo) MarkAllAsRead(_ context.Context, userID uuid.UUID) error {
	for _, n := range r.rows {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id, userID uuid.UUID) error {
	if n, ok := r.rows[id]; ok && n.UserID == userID {
		delete(r.rows, id)
	}
	return nil
}

func (r *memRepo) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	var deleted int64
	for id, n := range r.rows {
		if n.CreatedAt.Before(cutoff) {
			delete(r.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ownerID := uuid.New()
	strangerID := uuid.New()

	n, err := svc.Create(context.Background(), ownerID, TypeBookingConfirmed, "Session confirmed", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, strangerID); err != nil {
		t.Fatalf("mark as stranger: %v", err)
	}
	if repo.rows[n.ID].IsRead {
		t.Fatal("stranger marked another user's notification read")
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, ownerID); err != nil {
		t.Fatalf("mark as owner: %v", err)
	}
	if !repo.rows[n.ID].IsRead {
		t.Fatal("owner could not mark own notification read")
	}
}

func TestDismissScopedToOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ownerID := uuid.New()
	strangerID := uuid.New()

	n, err := svc.Create(context.Background(), ownerID, TypeTipReceived, "You got a tip", "", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Dismiss(context.Background(), n.ID, strangerID); err != nil {
		t.Fatalf("dismiss as stranger: %v", err)
	}
	if _, ok := repo.rows[n.ID]; !ok {
		t.Fatal("stranger dismissed another user's notification")
	}

	if err := svc.Dismiss(context.Background(), n.ID, ownerID); err != nil {
		t.Fatalf("dismiss as owner: %v", err)
	}
	if _, ok := repo.rows[n.ID]; ok {
		t.Fatal("owner dismissal did not remove the notification")
	}
}

func TestCleanupPrunesExpiredOnly(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	userID := uuid.New()

	old, _ := svc.Create(context.Background(), userID, TypeNewMessage, "Old", "", nil)
	repo.rows[old.ID].CreatedAt = time.Now().Add(-120 * 24 * time.Hour)
	fresh, _ := svc.Create(context.Background(), userID, TypeNewMessage, "Fresh", "", nil)

	NewCleanupJob(repo, 90*24*time.Hour).Run(context.Background())

	if _, ok := repo.rows[old.ID]; ok {
		t.Error("expired notification survived cleanup")
	}
	if _, ok := repo.rows[fresh.ID]; !ok {
		t.Error("fresh notification was pruned")
	}
}
