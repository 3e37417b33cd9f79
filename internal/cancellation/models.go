package cancellation

import (
	"kreede/internal/bookings"
	"kreede/internal/refunds"

	"github.com/go-playground/validator/v10"
)

// Path is the payment path a cancellation takes.
type Path string

const (
	PathMembership  Path = "MEMBERSHIP"
	PathNoGateway   Path = "NO_GATEWAY"
	PathGatewayPaid Path = "GATEWAY_PAID"
)

// SlotSelector picks a slot by Index when set, otherwise by the triple.
type SlotSelector struct {
	Index   *int
	CourtID string
	Start   string
	End     string
}

// Outcome is the terminal result of one reconciliation.
type Outcome struct {
	BookingID       string          `json:"booking_id"`
	Path            Path            `json:"path"`
	Refunded        float64         `json:"refunded"`
	Currency        string          `json:"currency"`
	RefundStatus    refunds.Status  `json:"refund_status"`
	RecordIDs       []string        `json:"record_ids,omitempty"`
	CreditsRestored int             `json:"credits_restored"`
	Deleted         bool            `json:"deleted"`
	RemainingSlots  int             `json:"remaining_slots"`
	RemainingAmount float64         `json:"remaining_amount"`
	Duplicate       bool            `json:"duplicate,omitempty"`
	CancelledSlots  []bookings.Slot `json:"cancelled_slots,omitempty"`
}

type CancelSlotRequest struct {
	SlotIndex *int   `json:"slotIndex" binding:"omitempty,min=0"`
	CourtID   string `json:"courtId"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reason    string `json:"reason" binding:"omitempty,max=500"`
}

func (r CancelSlotRequest) Selector() SlotSelector {
	return SlotSelector{Index: r.SlotIndex, CourtID: r.CourtID, Start: r.Start, End: r.End}
}

// slotSelectorRule requires slotIndex, or all three of courtId, start, end.
func slotSelectorRule(sl validator.StructLevel) {
	req := sl.Current().Interface().(CancelSlotRequest)
	if req.SlotIndex != nil {
		return
	}
	if req.CourtID == "" || req.Start == "" || req.End == "" {
		sl.ReportError(req.SlotIndex, "slotIndex", "SlotIndex", "slot_selector", "")
	}
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type SlotCancelResponse struct {
	OK           bool           `json:"ok"`
	Action       string         `json:"action"`
	Refunded     float64        `json:"refunded"`
	Currency     string         `json:"currency"`
	RefundStatus refunds.Status `json:"refundStatus"`
}

type BookingCancelResponse struct {
	OK           bool           `json:"ok"`
	DeletedID    string         `json:"deletedId"`
	Refunded     float64        `json:"refunded"`
	Currency     string         `json:"currency"`
	RefundStatus refunds.Status `json:"refundStatus"`
}

type RegistrationCancelResponse struct {
	OK           bool           `json:"ok"`
	CancelledID  string         `json:"cancelledId"`
	Refunded     float64        `json:"refunded"`
	Currency     string         `json:"currency"`
	RefundStatus refunds.Status `json:"refundStatus"`
}
