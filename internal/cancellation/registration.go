package cancellation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"kreede/internal/bookings"
	"kreede/internal/gateway"
	"kreede/internal/refunds"
	"kreede/internal/registrations"
	"kreede/internal/shared/apperror"
	"kreede/internal/shared/constants"
	"kreede/pkg/logger"
	"kreede/pkg/money"

	"github.com/google/uuid"
)

// CancelRegistration cancels an event registration. Unlike bookings, a
// PENDING gateway refund is accepted and recorded; only FAILED aborts.
func (r *reconciler) CancelRegistration(ctx context.Context, registrationID uuid.UUID, meta Meta) (*Outcome, error) {
	release, err := r.lock(ctx, constants.RegistrationLockKey(registrationID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	reg, err := r.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, registrations.ErrRegistrationNotFound) {
			return nil, apperror.NotFound("registration not found")
		}
		return nil, err
	}
	if reg.IsCancelled() {
		return nil, apperror.Conflict("registration is already cancelled")
	}

	log := r.log.WithFields(map[string]interface{}{"registration_id": registrationID.String()})
	rec := refunds.RefundRecord{
		Kind:          refunds.KindRegistrationCancel,
		ReferenceID:   reg.ID,
		SlotSignature: refunds.WholeBookingSignature,
		UserID:        reg.UserID,
		UserEmail:     reg.Email,
		UserName:      reg.Name,
		Currency:      r.currency(reg.Currency),
		Reason:        reasonOr(meta.Reason, "event registration cancelled by admin"),
		Metadata: refunds.Metadata{
			SlotSignature: refunds.WholeBookingSignature,
			PaymentRef:    bookings.Payment{Method: reg.PaymentMethod, Paid: true}.Ref(),
			OrderID:       reg.OrderID,
			Operator:      meta.Operator,
			Note:          reg.EventName,
		},
	}

	out := &Outcome{
		BookingID: registrationID.String(),
		Currency:  rec.Currency,
		Deleted:   true,
	}

	var (
		saved *refunds.RefundRecord
		dup   bool
	)
	if !reg.NeedsGatewayRefund() {
		out.Path = PathNoGateway
		saved, dup, err = r.settleNoGateway(ctx, rec, money.ToCents(reg.Amount))
	} else {
		out.Path = PathGatewayPaid
		saved, dup, err = r.settleRegistrationRefund(ctx, reg, rec, log)
	}
	if err != nil {
		return nil, err
	}
	out.addRecord(saved, dup)
	out.Refunded = saved.Amount
	out.RefundStatus = saved.Status

	if _, err := r.registrations.MarkCancelled(ctx, registrationID); err != nil {
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	log.InfoWithContext(ctx, "Event registration cancelled", map[string]interface{}{
		"refunded":      out.Refunded,
		"refund_status": string(out.RefundStatus),
	})
	return out, nil
}

func (r *reconciler) settleRegistrationRefund(ctx context.Context, reg *registrations.Registration, rec refunds.RefundRecord, log *logger.Logger) (*refunds.RefundRecord, bool, error) {
	existing, err := r.findExisting(ctx, rec.ReferenceID, rec.SlotSignature)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	cents := money.ToCents(reg.Amount)
	amount := money.FromCents(cents)
	refundID := RefundIDFor(rec.ReferenceID, rec.SlotSignature, cents)

	refund, status, err := r.requestRefund(ctx, reg.OrderID, refundID, amount, rec, log)
	if err != nil {
		return nil, false, err
	}
	if status == gateway.StatusFailed {
		return nil, false, apperror.Gateway(http.StatusBadGateway, "gateway reported the refund as failed", map[string]interface{}{
			"orderId":  reg.OrderID,
			"refundId": refundID,
		}, nil)
	}

	applyRefund(&rec, reg.OrderID, amount, refund, status)
	return r.insert(ctx, &rec)
}
