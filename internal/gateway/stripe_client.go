package gateway

import (
	"context"
	"errors"
	"net/http"

	"kreede/internal/shared/apperror"
	"kreede/pkg/money"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type stripeClient struct{}

// NewStripeClient refunds Stripe payment intents. The order id is the
// payment intent id.
func NewStripeClient(secretKey string) (Client, error) {
	if secretKey == "" {
		return nil, ErrMissingCredentials
	}
	stripe.Key = secretKey
	return &stripeClient{}, nil
}

func (s *stripeClient) CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if req.Amount <= 0 {
		return nil, apperror.InvalidAmount(req.Amount)
	}

	ctx, span := tracer.Start(ctx, "gateway.stripe.CreateRefund", trace.WithAttributes(
		attribute.String("gateway.order_id", req.OrderID),
		attribute.String("gateway.refund_id", req.RefundID),
	))
	defer span.End()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.OrderID),
		Amount:        stripe.Int64(money.ToCents(req.Amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.RefundID)
	params.AddMetadata("refund_id", req.RefundID)
	if req.Note != "" {
		params.AddMetadata("note", req.Note)
	}

	r, err := refund.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stripe refund failed")
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return nil, apperror.Gateway(stripeErr.HTTPStatusCode, stripeErr.Msg, stripeErr, err)
		}
		return nil, apperror.Gateway(http.StatusBadGateway, "payment gateway unreachable", nil, err)
	}

	return toRefund(r, req.RefundID), nil
}

func toRefund(r *stripe.Refund, refundID string) *Refund {
	out := &Refund{
		RefundID:        refundID,
		GatewayRefundID: r.ID,
		Status:          NormalizeStatus(string(r.Status)),
	}
	if r.PaymentIntent != nil {
		out.GatewayPaymentID = r.PaymentIntent.ID
	}
	if r.FailureReason != "" {
		out.StatusDescription = string(r.FailureReason)
	}
	return out
}

// PollStatus finds the refund by its idempotency key among the payment
// intent's refunds, then among the account's most recent refunds.
func (s *stripeClient) PollStatus(ctx context.Context, orderID, refundID string) *Refund {
	ctx, span := tracer.Start(ctx, "gateway.stripe.PollStatus", trace.WithAttributes(
		attribute.String("gateway.order_id", orderID),
		attribute.String("gateway.refund_id", refundID),
	))
	defer span.End()

	byIntent := &stripe.RefundListParams{PaymentIntent: stripe.String(orderID)}
	byIntent.Context = ctx
	r, err := findRefund(refund.List(byIntent), refundID)
	if err != nil {
		span.RecordError(err)
	}
	if r != nil {
		return toRefund(r, refundID)
	}

	// Refund id only, one page of recent refunds
	recent := &stripe.RefundListParams{}
	recent.Context = ctx
	recent.Limit = stripe.Int64(recentRefundsLimit)
	recent.Single = true
	r, err = findRefund(refund.List(recent), refundID)
	if err != nil {
		span.RecordError(err)
	}
	if r != nil {
		return toRefund(r, refundID)
	}
	return pendingRefund(refundID)
}

const recentRefundsLimit = 100

func findRefund(iter *refund.Iter, refundID string) (*stripe.Refund, error) {
	for iter.Next() {
		r := iter.Refund()
		if r.Metadata["refund_id"] == refundID {
			return r, nil
		}
	}
	return nil, iter.Err()
}
