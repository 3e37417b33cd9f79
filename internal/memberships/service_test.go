package memberships

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"kreede/internal/shared/apperror"
	"kreede/internal/users"
	"kreede/pkg/logger"

	"github.com/google/uuid"
)

// fakeRepo applies the same clamped semantics as the SQL updates.
type fakeRepo struct {
	byUser map[uuid.UUID]*Membership
}

func newFakeRepo(ms ...*Membership) *fakeRepo {
	r := &fakeRepo{byUser: map[uuid.UUID]*Membership{}}
	for _, m := range ms {
		r.byUser[m.UserID] = m
	}
	return r
}

func (r *fakeRepo) GetLatestPaid(_ context.Context, userID uuid.UUID) (*Membership, error) {
	m, ok := r.byUser[userID]
	if !ok || !m.IsUsable() {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

func (r *fakeRepo) RestoreOne(_ context.Context, userID uuid.UUID) (bool, error) {
	m, ok := r.byUser[userID]
	if !ok || !m.IsUsable() || m.GamesUsed <= 0 {
		return false, nil
	}
	m.GamesUsed = ClampUsed(m.GamesUsed, -1, m.Games)
	return true, nil
}

func (r *fakeRepo) Consume(_ context.Context, userID uuid.UUID, count int) (bool, error) {
	m, ok := r.byUser[userID]
	if !ok || !m.IsUsable() || m.GamesUsed >= m.Games {
		return false, nil
	}
	m.GamesUsed = ClampUsed(m.GamesUsed, count, m.Games)
	return true, nil
}

type fakeUsers struct {
	user *users.User
	err  error
}

func (f *fakeUsers) FindByEmailOrUsername(context.Context, string, string) (*users.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, users.ErrUserNotFound
	}
	return f.user, nil
}

func TestClampUsed(t *testing.T) {
	tests := []struct {
		used, delta, games, want int
	}{
		{3, -1, 10, 2},
		{0, -1, 10, 0},
		{9, 5, 10, 10},
		{10, 1, 10, 10},
		{4, 0, 10, 4},
	}
	for _, tt := range tests {
		if got := ClampUsed(tt.used, tt.delta, tt.games); got != tt.want {
			t.Errorf("ClampUsed(%d, %d, %d) = %d, want %d", tt.used, tt.delta, tt.games, got, tt.want)
		}
	}
}

func TestRestoreOneCredit(t *testing.T) {
	userID := uuid.New()
	m := &Membership{ID: uuid.New(), UserID: userID, Games: 10, GamesUsed: 3, Status: StatusPaid}
	var buf bytes.Buffer
	svc := NewService(newFakeRepo(m), &fakeUsers{}, logger.NewWithWriter(&buf, "info"))

	restored, err := svc.RestoreOneCredit(context.Background(), userID)
	if err != nil || !restored {
		t.Fatalf("RestoreOneCredit() = %v, %v", restored, err)
	}
	if m.GamesUsed != 2 {
		t.Errorf("GamesUsed = %d, want 2", m.GamesUsed)
	}
	if n := strings.Count(buf.String(), "Membership Credit Restored"); n != 1 {
		t.Errorf("credit restored logged %d times, want 1", n)
	}
}

func TestRestoreOneCreditNeverGoesNegative(t *testing.T) {
	userID := uuid.New()
	m := &Membership{ID: uuid.New(), UserID: userID, Games: 10, GamesUsed: 0, Status: StatusPaid}
	svc := NewService(newFakeRepo(m), &fakeUsers{}, logger.Discard())

	restored, err := svc.RestoreOneCredit(context.Background(), userID)
	if err != nil {
		t.Fatalf("RestoreOneCredit() error = %v", err)
	}
	if restored {
		t.Error("restored = true at zero used credits")
	}
	if m.GamesUsed != 0 {
		t.Errorf("GamesUsed = %d, want 0", m.GamesUsed)
	}
}

func TestRestoreOneCreditWithoutMembership(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeUsers{}, logger.Discard())
	restored, err := svc.RestoreOneCredit(context.Background(), uuid.New())
	if err != nil || restored {
		t.Fatalf("RestoreOneCredit() = %v, %v; want false, nil", restored, err)
	}
}

func TestConsumeCreditsClampsAtGames(t *testing.T) {
	userID := uuid.New()
	m := &Membership{ID: uuid.New(), UserID: userID, Games: 5, GamesUsed: 4, Status: StatusPaid}
	svc := NewService(newFakeRepo(m), &fakeUsers{}, logger.Discard())

	consumed, err := svc.ConsumeCredits(context.Background(), userID, 3)
	if err != nil || !consumed {
		t.Fatalf("ConsumeCredits() = %v, %v", consumed, err)
	}
	if m.GamesUsed != 5 {
		t.Errorf("GamesUsed = %d, want 5", m.GamesUsed)
	}

	if _, err := svc.ConsumeCredits(context.Background(), userID, 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ConsumeCredits(0) err = %v, want validation", err)
	}
}

func TestGetCredits(t *testing.T) {
	userID := uuid.New()
	m := &Membership{ID: uuid.New(), UserID: userID, Games: 8, GamesUsed: 3, Status: StatusPaid}
	svc := NewService(newFakeRepo(m), &fakeUsers{}, logger.Discard())

	summary, err := svc.GetCredits(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetCredits() error = %v", err)
	}
	if summary.Remaining != 5 {
		t.Errorf("Remaining = %d, want 5", summary.Remaining)
	}

	if _, err := svc.GetCredits(context.Background(), uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCredits(unknown) err = %v, want not found", err)
	}
}

func TestResolveUser(t *testing.T) {
	id := uuid.New()
	svc := NewService(newFakeRepo(), &fakeUsers{user: &users.User{ID: id}}, logger.Discard())

	got, err := svc.ResolveUser(context.Background(), "A@B.com", "")
	if err != nil || got != id {
		t.Fatalf("ResolveUser() = %v, %v", got, err)
	}

	svc = NewService(newFakeRepo(), &fakeUsers{}, logger.Discard())
	if _, err := svc.ResolveUser(context.Background(), "x@y.z", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ResolveUser(unknown) err = %v, want not found", err)
	}

	boom := errors.New("db down")
	svc = NewService(newFakeRepo(), &fakeUsers{err: boom}, logger.Discard())
	if _, err := svc.ResolveUser(context.Background(), "x@y.z", ""); !errors.Is(err, boom) {
		t.Errorf("ResolveUser(db error) err = %v, want wrapped db error", err)
	}
}
