package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v83"
)

func newStripeTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	}))
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })

	c, err := NewStripeClient("sk_test_kreede")
	if err != nil {
		t.Fatalf("NewStripeClient: %v", err)
	}
	return c
}

const emptyRefundList = `{"object":"list","url":"/v1/refunds","has_more":false,"data":[]}`

func TestStripePollStatusFallsBackToRefundIDLookup(t *testing.T) {
	var lookups []string
	c := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/refunds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		lookups = append(lookups, r.URL.Query().Get("payment_intent"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("payment_intent") != "" {
			_, _ = w.Write([]byte(emptyRefundList))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","url":"/v1/refunds","has_more":false,"data":[
			{"id":"re_other","object":"refund","status":"pending","metadata":{"refund_id":"rf_other"}},
			{"id":"re_1","object":"refund","status":"succeeded","payment_intent":"pi_1","metadata":{"refund_id":"rf_1"}}
		]}`))
	})

	got := c.PollStatus(context.Background(), "pi_1", "rf_1")
	if got.Status != StatusSuccess {
		t.Fatalf("Status = %s, want SUCCESS", got.Status)
	}
	if got.RefundID != "rf_1" || got.GatewayRefundID != "re_1" || got.GatewayPaymentID != "pi_1" {
		t.Errorf("PollStatus() = %+v", got)
	}
	if len(lookups) != 2 || lookups[0] != "pi_1" || lookups[1] != "" {
		t.Errorf("lookups = %q, want by intent then by refund id", lookups)
	}
}

func TestStripePollStatusUnknownRefundIsPending(t *testing.T) {
	c := newStripeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(emptyRefundList))
	})

	got := c.PollStatus(context.Background(), "pi_1", "rf_missing")
	if got.Status != StatusPending || got.GatewayRefundID != "" {
		t.Errorf("PollStatus() = %+v, want PENDING without ids", got)
	}
}
