package refunds

import (
	"time"

	"kreede/internal/bookings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSlotCancel         Kind = "slot-cancel"
	KindBookingCancel      Kind = "full-booking-cancel"
	KindRegistrationCancel Kind = "event-registration-cancel"
)

type GatewayTag string

const (
	GatewayNone    GatewayTag = "NONE"
	GatewayPayment GatewayTag = "GATEWAY"
)

type Status string

const (
	StatusNoRefundRequired Status = "NO_REFUND_REQUIRED"
	StatusPending          Status = "PENDING"
	StatusSuccess          Status = "SUCCESS"
	StatusFailed           Status = "FAILED"
)

// WholeBookingSignature stands in for a slot signature on records that
// cover every remaining slot of a booking.
const WholeBookingSignature = "*"

// Metadata is the structured context captured at cancellation time.
type Metadata struct {
	SlotSignature    string          `json:"slot_signature,omitempty"`
	Slot             *bookings.Slot  `json:"slot,omitempty"`
	Slots            []bookings.Slot `json:"slots,omitempty"`
	TotalSlotsBefore int             `json:"total_slots_before,omitempty"`
	PaymentRef       string          `json:"payment_ref,omitempty"`
	OrderID          string          `json:"order_id,omitempty"`
	Operator         string          `json:"operator,omitempty"`
	Note             string          `json:"note,omitempty"`
}

// RefundRecord is written once per cancellation. The only later updates are
// MembershipCreditRestored flipping to true and a PENDING status being
// promoted after a gateway poll.
type RefundRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind        Kind      `gorm:"type:varchar(40);not null;index" json:"kind"`
	ReferenceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_refunds_reference_slot,where:slot_signature <> ''" json:"reference_id"`
	// SlotSignature is empty for registration cancels.
	SlotSignature string `gorm:"type:varchar(120);not null;default:'';uniqueIndex:idx_refunds_reference_slot,where:slot_signature <> ''" json:"slot_signature,omitempty"`
	Variant       string `gorm:"type:varchar(20)" json:"variant,omitempty"`

	// Identity snapshot
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	UserEmail  string     `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	UserName   string     `gorm:"type:varchar(255)" json:"user_name,omitempty"`
	GuestName  string     `gorm:"type:varchar(255)" json:"guest_name,omitempty"`
	GuestPhone string     `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`

	Amount   float64    `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Currency string     `gorm:"type:varchar(3);not null" json:"currency"`
	Reason   string     `gorm:"type:text" json:"reason"`
	Gateway  GatewayTag `gorm:"type:varchar(10);not null;check:gateway IN ('NONE', 'GATEWAY')" json:"gateway"`

	OrderID          string `gorm:"type:varchar(100)" json:"order_id,omitempty"`
	RefundID         string `gorm:"type:varchar(100);index" json:"refund_id,omitempty"`
	GatewayRefundID  string `gorm:"type:varchar(100)" json:"gateway_refund_id,omitempty"`
	GatewayPaymentID string `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`

	Status                   Status    `gorm:"type:varchar(30);not null;check:status IN ('NO_REFUND_REQUIRED', 'PENDING', 'SUCCESS', 'FAILED');index" json:"status"`
	StatusDescription        string    `gorm:"type:text" json:"status_description,omitempty"`
	Metadata                 Metadata  `gorm:"type:jsonb;serializer:json" json:"metadata"`
	MembershipCreditRestored bool      `gorm:"not null;default:false" json:"membership_credit_restored"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func (RefundRecord) TableName() string {
	return "refunds"
}

// SnapshotIdentity copies the payer identity from a booking.
func (r *RefundRecord) SnapshotIdentity(b *bookings.Booking) {
	r.Variant = string(b.Variant)
	r.UserID = b.UserID
	r.UserEmail = b.UserEmail
	r.UserName = b.UserName
	r.GuestName = b.GuestName
	r.GuestPhone = b.GuestPhone
}

type ListQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	BookingID string `form:"bookingId" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=NO_REFUND_REQUIRED PENDING SUCCESS FAILED"`
	Kind      string `form:"kind" binding:"omitempty,oneof=slot-cancel full-booking-cancel event-registration-cancel"`
}

type PaginatedRefunds struct {
	Refunds    []RefundRecord `json:"refunds"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}
