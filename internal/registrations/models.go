package registrations

import (
	"time"

	"kreede/internal/bookings"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRegistered Status = "REGISTERED"
	StatusCancelled  Status = "CANCELLED"
)

// Registration is a paid or free seat at a facility event.
type Registration struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventName     string                 `gorm:"type:varchar(255);not null" json:"event_name"`
	EventDate     time.Time              `gorm:"type:date" json:"event_date"`
	UserID        *uuid.UUID             `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name          string                 `gorm:"type:varchar(255)" json:"name"`
	Email         string                 `gorm:"type:varchar(255)" json:"email"`
	Phone         string                 `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Amount        float64                `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Currency      string                 `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	PaymentMethod bookings.PaymentMethod `gorm:"type:varchar(20)" json:"payment_method"`
	OrderID       string                 `gorm:"type:varchar(100)" json:"order_id,omitempty"`
	Status        Status                 `gorm:"type:varchar(20);check:status IN ('REGISTERED', 'CANCELLED');default:'REGISTERED'" json:"status"`
	CancelledAt   *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (Registration) TableName() string {
	return "event_registrations"
}

func (r *Registration) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// NeedsGatewayRefund reports whether cancelling moves money through the gateway.
func (r *Registration) NeedsGatewayRefund() bool {
	if r.Amount <= 0 || r.PaymentMethod == bookings.PaymentMethodCash || r.PaymentMethod == bookings.PaymentMethodMembership {
		return false
	}
	return r.OrderID != "" && !bookings.IsSyntheticOrderID(r.OrderID)
}
