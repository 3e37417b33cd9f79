package refunds

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRefundNotFound = errors.New("refund record not found")
	// ErrDuplicate means a record for the same reference and slot signature
	// already exists.
	ErrDuplicate = errors.New("refund record already exists")
)

// Repository is the RefundLedger. Records are append-only.
type Repository interface {
	Create(ctx context.Context, record *RefundRecord) error
	FindBySignature(ctx context.Context, referenceID uuid.UUID, signature string) (*RefundRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error)
	List(ctx context.Context, query ListQuery) ([]RefundRecord, int64, error)

	MarkCreditRestored(ctx context.Context, id uuid.UUID) error
	// PromoteStatus moves a PENDING record to status. Reports whether it changed.
	PromoteStatus(ctx context.Context, id uuid.UUID, status Status, description string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, record *RefundRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create refund record: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repository) FindBySignature(ctx context.Context, referenceID uuid.UUID, signature string) (*RefundRecord, error) {
	var record RefundRecord
	err := r.db.WithContext(ctx).
		Where("reference_id = ? AND slot_signature = ?", referenceID, signature).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to find refund record: %w", err)
	}
	return &record, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*RefundRecord, error) {
	var record RefundRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund record: %w", err)
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]RefundRecord, int64, error) {
	var (
		records    []RefundRecord
		totalCount int64
	)

	db := r.db.WithContext(ctx).Model(&RefundRecord{})
	if query.BookingID != "" {
		db = db.Where("reference_id = ?", query.BookingID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Kind != "" {
		db = db.Where("kind = ?", query.Kind)
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	offset := (query.Page - 1) * query.Limit

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&records).Error

	return records, totalCount, err
}

func (r *repository) MarkCreditRestored(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&RefundRecord{}).
		Where("id = ?", id).
		Update("membership_credit_restored", true).Error
}

func (r *repository) PromoteStatus(ctx context.Context, id uuid.UUID, status Status, description string) (bool, error) {
	updates := map[string]interface{}{"status": status}
	if description != "" {
		updates["status_description"] = description
	}
	result := r.db.WithContext(ctx).
		Model(&RefundRecord{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update refund status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
