package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRegistrationNotFound = errors.New("registration not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	// MarkCancelled reports false when the registration was already cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, registration *Registration) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, registration *Registration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Registration, error) {
	var registration Registration
	if err := r.db.WithContext(ctx).First(&registration, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &registration, nil
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND status = ?", id, StatusRegistered).
		Updates(map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel registration: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
