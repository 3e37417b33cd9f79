// Package gateway issues and tracks refunds against the external payment
// gateway.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"kreede/internal/shared/config"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("kreede/internal/gateway")

// Status is the normalized gateway refund status.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// NormalizeStatus maps a provider status string to PENDING, SUCCESS or FAILED.
// Anything undecided is PENDING.
func NormalizeStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "SUCCEEDED", "PROCESSED":
		return StatusSuccess
	case "FAILED", "CANCELLED", "CANCELED", "REJECTED":
		return StatusFailed
	default:
		return StatusPending
	}
}

type RefundRequest struct {
	OrderID string
	// RefundID is the caller's idempotency key, distinct from the gateway id.
	RefundID string
	Amount   float64
	Currency string
	Note     string
}

type Refund struct {
	RefundID          string `json:"refund_id"`
	GatewayRefundID   string `json:"gateway_refund_id,omitempty"`
	GatewayPaymentID  string `json:"gateway_payment_id,omitempty"`
	Status            Status `json:"status"`
	StatusDescription string `json:"status_description,omitempty"`
}

// Client is the PaymentGatewayClient.
type Client interface {
	// CreateRefund fails with an *apperror.Error: INVALID_AMOUNT for a
	// non-positive amount, GATEWAY_ERROR carrying the upstream status otherwise.
	CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error)

	// PollStatus never fails and never returns nil. An undecided or
	// unreachable refund comes back PENDING with no gateway ids.
	PollStatus(ctx context.Context, orderID, refundID string) *Refund
}

// Absorb takes the outcome of a later lookup. Correlation ids already known
// are kept.
func (r *Refund) Absorb(polled *Refund) {
	if polled == nil {
		return
	}
	r.Status = polled.Status
	if r.GatewayRefundID == "" {
		r.GatewayRefundID = polled.GatewayRefundID
	}
	if r.GatewayPaymentID == "" {
		r.GatewayPaymentID = polled.GatewayPaymentID
	}
	if polled.StatusDescription != "" {
		r.StatusDescription = polled.StatusDescription
	}
}

func pendingRefund(refundID string) *Refund {
	return &Refund{RefundID: refundID, Status: StatusPending}
}

// New builds the configured provider. Missing credentials are a startup error.
func New(cfg config.GatewayConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "http":
		return NewHTTPClient(cfg)
	case "stripe":
		return NewStripeClient(cfg.StripeSecretKey)
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}
