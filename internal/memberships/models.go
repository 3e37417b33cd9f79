package memberships

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusExpired Status = "EXPIRED"
)

// Membership carries a consumable game credit. Invariant: 0 <= GamesUsed <= Games.
// GamesUsed is only ever changed through the repository's conditional updates.
type Membership struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Plan       string     `gorm:"type:varchar(50)" json:"plan"`
	Games      int        `gorm:"not null;default:0;check:games >= 0" json:"games"`
	GamesUsed  int        `gorm:"not null;default:0;check:games_used >= 0" json:"games_used"`
	Status     Status     `gorm:"type:varchar(20);check:status IN ('PENDING', 'PAID', 'EXPIRED');default:'PENDING'" json:"status"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

// Remaining returns the credits still available.
func (m *Membership) Remaining() int {
	return m.Games - ClampUsed(m.GamesUsed, 0, m.Games)
}

func (m *Membership) IsUsable() bool {
	return m.Status == StatusPaid
}

// ClampUsed applies delta to used and clamps the result into [0, games]. It is
// the in-process mirror of the GREATEST/LEAST update expressions.
func ClampUsed(used, delta, games int) int {
	next := used + delta
	if next < 0 {
		next = 0
	}
	if next > games {
		next = games
	}
	return next
}

// CreditSummary is the read model returned to operators.
type CreditSummary struct {
	MembershipID uuid.UUID `json:"membership_id"`
	UserID       uuid.UUID `json:"user_id"`
	Games        int       `json:"games"`
	GamesUsed    int       `json:"games_used"`
	Remaining    int       `json:"remaining"`
	Status       Status    `json:"status"`
}

type ConsumeRequest struct {
	Count int `json:"count" binding:"required,min=1,max=50"`
}
