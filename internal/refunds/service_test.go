package refunds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kreede/internal/gateway"
	"kreede/internal/shared/apperror"
	"kreede/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memRepo struct {
	Repository
	records map[uuid.UUID]*RefundRecord
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*RefundRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRefundNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) PromoteStatus(_ context.Context, id uuid.UUID, status Status, _ string) (bool, error) {
	r, ok := m.records[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = status
	return true, nil
}

func (m *memRepo) List(_ context.Context, _ ListQuery) ([]RefundRecord, int64, error) {
	out := make([]RefundRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

type stubGateway struct {
	status gateway.Status
	polls  int
}

func (s *stubGateway) CreateRefund(context.Context, gateway.RefundRequest) (*gateway.Refund, error) {
	return nil, errors.New("not used")
}

func (s *stubGateway) PollStatus(_ context.Context, _, refundID string) *gateway.Refund {
	s.polls++
	return &gateway.Refund{RefundID: refundID, Status: s.status}
}

func pendingRecord() *RefundRecord {
	return &RefundRecord{
		ID:       uuid.New(),
		Kind:     KindRegistrationCancel,
		Gateway:  GatewayPayment,
		OrderID:  "order_1",
		RefundID: "rf_1",
		Status:   StatusPending,
	}
}

func TestSyncPromotesDecidedStatus(t *testing.T) {
	rec := pendingRecord()
	repo := &memRepo{records: map[uuid.UUID]*RefundRecord{rec.ID: rec}}
	gw := &stubGateway{status: gateway.StatusSuccess}
	svc := NewService(repo, gw, logger.Discard())

	got, err := svc.Sync(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got.Status != StatusSuccess {
		t.Errorf("Status = %s, want SUCCESS", got.Status)
	}

	// A second sync leaves the decided record alone.
	if _, err := svc.Sync(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}
	if gw.polls != 1 {
		t.Errorf("polls = %d, want 1", gw.polls)
	}
}

func TestSyncKeepsPendingWhenUndecided(t *testing.T) {
	rec := pendingRecord()
	repo := &memRepo{records: map[uuid.UUID]*RefundRecord{rec.ID: rec}}
	svc := NewService(repo, &stubGateway{status: gateway.StatusPending}, logger.Discard())

	got, err := svc.Sync(context.Background(), rec.ID)
	if err != nil || got.Status != StatusPending {
		t.Fatalf("Sync() = %+v, %v", got, err)
	}
}

func TestSyncRejectsNonGatewayRecord(t *testing.T) {
	rec := pendingRecord()
	rec.Gateway = GatewayNone
	repo := &memRepo{records: map[uuid.UUID]*RefundRecord{rec.ID: rec}}
	svc := NewService(repo, &stubGateway{}, logger.Discard())

	if _, err := svc.Sync(context.Background(), rec.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestRefundRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := pendingRecord()
	repo := &memRepo{records: map[uuid.UUID]*RefundRecord{rec.ID: rec}}

	r := gin.New()
	SetupRefundRoutes(r.Group("/admin"), NewController(NewService(repo, &stubGateway{status: gateway.StatusFailed}, logger.Discard())))

	tests := []struct {
		name, method, path string
		want               int
	}{
		{"list", http.MethodGet, "/admin/refunds?status=PENDING", http.StatusOK},
		{"list bad filter", http.MethodGet, "/admin/refunds?status=MAYBE", http.StatusBadRequest},
		{"get", http.MethodGet, "/admin/refunds/" + rec.ID.String(), http.StatusOK},
		{"get missing", http.MethodGet, "/admin/refunds/" + uuid.NewString(), http.StatusNotFound},
		{"get bad id", http.MethodGet, "/admin/refunds/xyz", http.StatusBadRequest},
		{"sync", http.MethodPost, "/admin/refunds/" + rec.ID.String() + "/sync", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
	if rec.Status != StatusFailed {
		t.Errorf("record status after sync = %s, want FAILED", rec.Status)
	}
}
