package bookings

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Variant tags which backing table holds a booking.
type Variant string

const (
	VariantAccount Variant = "account"
	VariantGuest   Variant = "guest"
)

// Variants lists the lookup order used by the store.
var Variants = []Variant{VariantAccount, VariantGuest}

func (v Variant) Table() string {
	if v == VariantGuest {
		return "guest_bookings"
	}
	return "bookings"
}

func (v Variant) IsValid() bool {
	return v == VariantAccount || v == VariantGuest
}

// Slot is a half-open court interval [Start, End) with hour granularity.
type Slot struct {
	CourtID string `json:"court_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Signature identifies a slot within its booking.
func (s Slot) Signature() string {
	return fmt.Sprintf("%s_%s_%s", s.CourtID, s.Start, s.End)
}

func (s Slot) Matches(courtID, start, end string) bool {
	return s.CourtID == strings.TrimSpace(courtID) &&
		s.Start == strings.TrimSpace(start) &&
		s.End == strings.TrimSpace(end)
}

// Booking is stored in one of two tables with the same shape. Account
// bookings carry the user identity, guest bookings carry name and phone.
// A booking with no slots is never persisted.
type Booking struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Variant Variant   `gorm:"-" json:"variant"`

	// Account identity
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	UserEmail string     `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	UserName  string     `gorm:"type:varchar(255)" json:"user_name,omitempty"`

	// Guest identity
	GuestName  string `gorm:"type:varchar(255)" json:"guest_name,omitempty"`
	GuestPhone string `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`

	Date          time.Time     `gorm:"type:date;not null" json:"date"`
	Slots         []Slot        `gorm:"type:jsonb;serializer:json;not null" json:"slots"`
	Amount        float64       `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Currency      string        `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);check:payment_method IN ('', 'CASH', 'ONLINE', 'MEMBERSHIP')" json:"payment_method"`
	Paid          bool          `gorm:"not null;default:false" json:"paid"`
	AdminPaid     bool          `gorm:"not null;default:false" json:"admin_paid"`
	OrderID       string        `gorm:"type:varchar(100)" json:"order_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (b *Booking) IsGuest() bool {
	return b.Variant == VariantGuest
}

// PaymentRef renders the legacy payment tag for display and audit rows.
func (b *Booking) PaymentRef() string {
	return Payment{Method: b.PaymentMethod, Paid: b.Paid}.Ref()
}

// PayerName returns the display name for whichever identity the booking carries.
func (b *Booking) PayerName() string {
	if b.IsGuest() {
		return b.GuestName
	}
	if b.UserName != "" {
		return b.UserName
	}
	return b.UserEmail
}

// FindSlot returns the index of the slot with the given triple, or -1.
func (b *Booking) FindSlot(courtID, start, end string) int {
	for i, s := range b.Slots {
		if s.Matches(courtID, start, end) {
			return i
		}
	}
	return -1
}

// HasSlots reports whether every slot in want is still on the booking.
func (b *Booking) HasSlots(want []Slot) bool {
	for _, s := range want {
		if b.FindSlot(s.CourtID, s.Start, s.End) < 0 {
			return false
		}
	}
	return true
}

// IsSyntheticOrderID reports whether an order id was generated by the admin
// console rather than the payment gateway.
func IsSyntheticOrderID(orderID string) bool {
	id := strings.ToLower(strings.TrimSpace(orderID))
	return strings.HasPrefix(id, "admin") || strings.HasPrefix(id, "adm_")
}

// HasGatewayOrder reports whether the booking was paid through the gateway.
func (b *Booking) HasGatewayOrder() bool {
	return strings.TrimSpace(b.OrderID) != "" && !IsSyntheticOrderID(b.OrderID)
}

// withoutSlots returns slots minus every entry whose signature is in remove.
func withoutSlots(slots []Slot, remove []Slot) []Slot {
	drop := make(map[string]struct{}, len(remove))
	for _, s := range remove {
		drop[s.Signature()] = struct{}{}
	}
	kept := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if _, ok := drop[s.Signature()]; ok {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
