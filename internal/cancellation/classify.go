package cancellation

import (
	"fmt"
	"strings"

	"kreede/internal/bookings"
	"kreede/pkg/money"

	"github.com/google/uuid"
)

// Classify picks the payment path. The rules are evaluated in order:
//
//	membership: account booking, not CASH, and amount <= 0, MEMBERSHIP, or no order id
//	no-gateway: guest, CASH or MEMBERSHIP, missing or admin order id, or amount <= 0
//	gateway:    everything else
func Classify(b *bookings.Booking) Path {
	nonPositive := money.ToCents(b.Amount) <= 0
	noOrder := strings.TrimSpace(b.OrderID) == ""
	method := b.PaymentMethod

	if !b.IsGuest() && method != bookings.PaymentMethodCash &&
		(nonPositive || method == bookings.PaymentMethodMembership || noOrder) {
		return PathMembership
	}

	if b.IsGuest() ||
		method == bookings.PaymentMethodCash ||
		method == bookings.PaymentMethodMembership ||
		!b.HasGatewayOrder() ||
		nonPositive {
		return PathNoGateway
	}

	return PathGatewayPaid
}

// SlotShareCents is the refund for one slot of a booking that currently
// holds slotsBefore slots. The last slot takes whatever amount remains.
func SlotShareCents(amount float64, slotsBefore int) int64 {
	total := money.ToCents(amount)
	if slotsBefore <= 1 {
		return total
	}
	return money.Share(total, slotsBefore)
}

// ResolveSlot returns the index of the slot sel points at, or -1.
func ResolveSlot(b *bookings.Booking, sel SlotSelector) int {
	if sel.Index != nil {
		if *sel.Index < 0 || *sel.Index >= len(b.Slots) {
			return -1
		}
		return *sel.Index
	}
	return b.FindSlot(sel.CourtID, sel.Start, sel.End)
}

var refundNamespace = uuid.MustParse("6f1c2a54-3b7e-4d0a-9a43-2f0f5c6e9b11")

// RefundIDFor derives the gateway idempotency key for a refund, so the same
// cancellation retried with the same amount reuses the gateway refund.
func RefundIDFor(referenceID uuid.UUID, signature string, cents int64) string {
	name := fmt.Sprintf("%s|%s|%d", referenceID, signature, cents)
	id := uuid.NewSHA1(refundNamespace, []byte(name))
	return "rf_" + strings.ReplaceAll(id.String(), "-", "")
}
