package memberships

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMembershipNotFound = errors.New("membership not found")

type Repository interface {
	GetLatestPaid(ctx context.Context, userID uuid.UUID) (*Membership, error)

	// RestoreOne decrements games_used by one on the user's latest PAID
	// membership that still has a used credit. Reports whether a row changed.
	RestoreOne(ctx context.Context, userID uuid.UUID) (bool, error)

	// Consume increments games_used by count, clamped at games. Reports whether
	// a row changed.
	Consume(ctx context.Context, userID uuid.UUID, count int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetLatestPaid(ctx context.Context, userID uuid.UUID) (*Membership, error) {
	var m Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, StatusPaid).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// Both updates are single statements: the target row is picked by a subquery
// and the new value is clamped in SQL, so concurrent adjustments for the same
// user never read-modify-write.

func (r *repository) RestoreOne(ctx context.Context, userID uuid.UUID) (bool, error) {
	target := r.db.Model(&Membership{}).
		Select("id").
		Where("user_id = ? AND status = ? AND games_used > 0", userID, StatusPaid).
		Order("created_at DESC").
		Limit(1)

	result := r.db.WithContext(ctx).
		Model(&Membership{}).
		Where("id = (?)", target).
		Update("games_used", gorm.Expr("GREATEST(games_used - 1, 0)"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to restore membership credit: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Consume(ctx context.Context, userID uuid.UUID, count int) (bool, error) {
	target := r.db.Model(&Membership{}).
		Select("id").
		Where("user_id = ? AND status = ? AND games_used < games", userID, StatusPaid).
		Order("created_at DESC").
		Limit(1)

	result := r.db.WithContext(ctx).
		Model(&Membership{}).
		Where("id = (?)", target).
		Update("games_used", gorm.Expr("LEAST(games_used + ?, games)", count))
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume membership credits: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
