package cancellation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kreede/internal/refunds"
	"kreede/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubReconciler struct {
	out     *Outcome
	err     error
	lastSel SlotSelector
	meta    Meta
}

func (s *stubReconciler) CancelSlot(_ context.Context, id uuid.UUID, sel SlotSelector, meta Meta) (*Outcome, error) {
	s.lastSel, s.meta = sel, meta
	return s.result(id)
}

func (s *stubReconciler) CancelBooking(_ context.Context, id uuid.UUID, meta Meta) (*Outcome, error) {
	s.meta = meta
	return s.result(id)
}

func (s *stubReconciler) CancelRegistration(_ context.Context, id uuid.UUID, meta Meta) (*Outcome, error) {
	s.meta = meta
	return s.result(id)
}

func (s *stubReconciler) result(id uuid.UUID) (*Outcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.out
	out.BookingID = id.String()
	return &out, nil
}

func setupRouter(t *testing.T, rec Reconciler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators() error = %v", err)
	}
	r := gin.New()
	SetupCancellationRoutes(r.Group("/admin"), NewController(rec))
	return r
}

func doPost(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCancelSlotEndpoint(t *testing.T) {
	stub := &stubReconciler{out: &Outcome{Refunded: 500, Currency: "INR", RefundStatus: refunds.StatusNoRefundRequired}}
	r := setupRouter(t, stub)
	id := uuid.New()

	w := doPost(r, "/admin/bookings/"+id.String()+"/slots/cancel", `{"slotIndex":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp SlotCancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Action != "slot_cancelled" || resp.Refunded != 500 || resp.RefundStatus != refunds.StatusNoRefundRequired {
		t.Errorf("response = %+v", resp)
	}
	if stub.lastSel.Index == nil || *stub.lastSel.Index != 1 {
		t.Errorf("selector = %+v, want index 1", stub.lastSel)
	}
}

func TestCancelSlotEndpointValidation(t *testing.T) {
	r := setupRouter(t, &stubReconciler{out: &Outcome{}})
	id := uuid.New().String()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad id", "/admin/bookings/nope/slots/cancel", `{"slotIndex":0}`},
		{"no selector", "/admin/bookings/" + id + "/slots/cancel", `{}`},
		{"partial triple", "/admin/bookings/" + id + "/slots/cancel", `{"courtId":"c1","start":"10:00"}`},
		{"negative index", "/admin/bookings/" + id + "/slots/cancel", `{"slotIndex":-1}`},
		{"empty body", "/admin/bookings/" + id + "/slots/cancel", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doPost(r, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
			var resp map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["code"] != string(apperror.CodeValidation) || resp["ok"] != false {
				t.Errorf("body = %v", resp)
			}
		})
	}
}

func TestCancelEndpointsMapErrors(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		name   string
		err    error
		status int
		code   apperror.Code
	}{
		{"not found", apperror.NotFound("booking not found"), http.StatusNotFound, apperror.CodeNotFound},
		{"unconfirmed", apperror.RefundNotConfirmed("PENDING", map[string]interface{}{"refundId": "rf_1"}), http.StatusConflict, apperror.CodeRefundNotConfirmed},
		{"gateway", apperror.Gateway(http.StatusBadGateway, "upstream down", nil, nil), http.StatusBadGateway, apperror.CodeGateway},
		{"invalid amount", apperror.InvalidAmount(0), http.StatusBadRequest, apperror.CodeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, &stubReconciler{err: tt.err})
			w := doPost(r, "/admin/bookings/"+id+"/cancel", "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var resp map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["code"] != string(tt.code) {
				t.Errorf("code = %v, want %s", resp["code"], tt.code)
			}
		})
	}
}

func TestCancelBookingAndRegistrationEndpoints(t *testing.T) {
	stub := &stubReconciler{out: &Outcome{Refunded: 1000, Currency: "INR", RefundStatus: refunds.StatusSuccess}}
	r := setupRouter(t, stub)
	id := uuid.New().String()

	w := doPost(r, "/admin/bookings/"+id+"/cancel", `{"reason":"court flooded"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var booking BookingCancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &booking); err != nil {
		t.Fatal(err)
	}
	if !booking.OK || booking.DeletedID != id || booking.Refunded != 1000 {
		t.Errorf("response = %+v", booking)
	}
	if stub.meta.Reason != "court flooded" {
		t.Errorf("reason = %q", stub.meta.Reason)
	}

	w = doPost(r, "/admin/registrations/"+id+"/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var reg RegistrationCancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}
	if !reg.OK || reg.CancelledID != id {
		t.Errorf("response = %+v", reg)
	}
}
