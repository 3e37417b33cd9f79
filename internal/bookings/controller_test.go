package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kreede/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeRepo struct {
	Repository
	bookings map[uuid.UUID]*Booking
}

func (f *fakeRepo) FindByIDAcrossVariants(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeRepo) MarkPaid(_ context.Context, id uuid.UUID) (*Booking, bool, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, false, ErrBookingNotFound
	}
	if b.AdminPaid {
		return b, true, nil
	}
	p := Payment{Method: b.PaymentMethod, Paid: b.Paid}.MarkPaid()
	b.PaymentMethod, b.Paid, b.AdminPaid = p.Method, p.Paid, true
	return b, false, nil
}

func setupRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupBookingRoutes(r.Group("/admin"), NewController(NewService(repo, logger.Discard())))
	return r
}

func TestMarkPaidEndpoint(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{bookings: map[uuid.UUID]*Booking{
		id: {ID: id, Variant: VariantAccount, PaymentMethod: PaymentMethodCash, Slots: threeSlots()},
	}}
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/bookings/"+id.String()+"/mark-paid", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var first MarkPaidResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}
	if !first.OK || first.Already || first.PaymentRef != "PAID.CASH" {
		t.Errorf("first response = %+v", first)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/bookings/"+id.String()+"/mark-paid", nil))
	var second map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if second["ok"] != true || second["already"] != true {
		t.Errorf("second response = %v, want ok+already", second)
	}
}

func TestMarkPaidErrors(t *testing.T) {
	r := setupRouter(&fakeRepo{bookings: map[uuid.UUID]*Booking{}})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad id", "/admin/bookings/not-a-uuid/mark-paid", http.StatusBadRequest},
		{"unknown booking", "/admin/bookings/" + uuid.NewString() + "/mark-paid", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestGetBookingEndpoint(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepo{bookings: map[uuid.UUID]*Booking{
		id: {ID: id, Variant: VariantGuest, GuestName: "Asha", PaymentMethod: PaymentMethodCash, Paid: true, Slots: threeSlots()},
	}}
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/bookings/"+id.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Data struct {
			Variant    string `json:"variant"`
			PaymentRef string `json:"payment_ref"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Variant != "guest" || body.Data.PaymentRef != "PAID.CASH" {
		t.Errorf("data = %+v", body.Data)
	}
}
