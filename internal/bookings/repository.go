package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kreede/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrSlotNotFound    = errors.New("slot not found in booking")
)

// Mutation describes one cancellation's effect on a booking.
type Mutation struct {
	RemoveSlots []Slot
	// DecrementBy is subtracted from the amount. Zero leaves it untouched.
	DecrementBy float64
	// DeleteAll removes the booking regardless of remaining slots.
	DeleteAll bool
}

// MutationResult is the booking state after a Mutation.
type MutationResult struct {
	RemainingSlots  int
	RemainingAmount float64
	Deleted         bool
}

// Repository is the BookingStore. Every write takes the variant found at
// lookup time so one cancellation never spans both tables.
type Repository interface {
	// FindByIDAcrossVariants tries the account table first, then guests.
	FindByIDAcrossVariants(ctx context.Context, id uuid.UUID) (*Booking, error)

	RemoveSlot(ctx context.Context, id uuid.UUID, variant Variant, slot Slot) (int, error)
	DeleteIfEmpty(ctx context.Context, id uuid.UUID, variant Variant) (bool, error)
	DecrementAmount(ctx context.Context, id uuid.UUID, variant Variant, delta float64) error
	Delete(ctx context.Context, id uuid.UUID, variant Variant) error

	// ApplyCancellation performs slot removal, amount decrement and the empty
	// check in one transaction holding a row lock.
	ApplyCancellation(ctx context.Context, id uuid.UUID, variant Variant, m Mutation) (*MutationResult, error)

	// MarkPaid flips the paid flags. already is true when nothing changed.
	MarkPaid(ctx context.Context, id uuid.UUID) (booking *Booking, already bool, err error)

	Create(ctx context.Context, booking *Booking) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if !booking.Variant.IsValid() {
		booking.Variant = VariantAccount
	}
	if len(booking.Slots) == 0 {
		return fmt.Errorf("booking must have at least one slot")
	}
	return r.db.WithContext(ctx).Table(booking.Variant.Table()).Create(booking).Error
}

func (r *repository) FindByIDAcrossVariants(ctx context.Context, id uuid.UUID) (*Booking, error) {
	for _, variant := range Variants {
		booking, err := findIn(r.db.WithContext(ctx), id, variant, false)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
	}
	return nil, ErrBookingNotFound
}

func findIn(db *gorm.DB, id uuid.UUID, variant Variant, lock bool) (*Booking, error) {
	query := db.Table(variant.Table()).Where("id = ?", id)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var booking Booking
	if err := query.Take(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking from %s: %w", variant.Table(), err)
	}
	booking.Variant = variant
	return &booking, nil
}

func (r *repository) RemoveSlot(ctx context.Context, id uuid.UUID, variant Variant, slot Slot) (int, error) {
	var remaining int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := findIn(tx, id, variant, true)
		if err != nil {
			return err
		}
		booking.Slots = withoutSlots(booking.Slots, []Slot{slot})
		remaining = len(booking.Slots)
		slots, err := slotsJSON(booking.Slots)
		if err != nil {
			return err
		}
		return tx.Table(variant.Table()).
			Where("id = ?", id).
			Update("slots", slots).Error
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *repository) DeleteIfEmpty(ctx context.Context, id uuid.UUID, variant Variant) (bool, error) {
	result := r.db.WithContext(ctx).
		Table(variant.Table()).
		Where("id = ? AND jsonb_array_length(slots) = 0", id).
		Delete(&Booking{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete empty booking: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DecrementAmount(ctx context.Context, id uuid.UUID, variant Variant, delta float64) error {
	return r.db.WithContext(ctx).
		Table(variant.Table()).
		Where("id = ?", id).
		Update("amount", gorm.Expr("GREATEST(ROUND(amount - ?::numeric, 2), 0)", money.Round2(delta))).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID, variant Variant) error {
	result := r.db.WithContext(ctx).Table(variant.Table()).Where("id = ?", id).Delete(&Booking{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) ApplyCancellation(ctx context.Context, id uuid.UUID, variant Variant, m Mutation) (*MutationResult, error) {
	var result *MutationResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := findIn(tx, id, variant, true)
		if err != nil {
			return err
		}

		if !booking.HasSlots(m.RemoveSlots) {
			return ErrSlotNotFound
		}

		result = Plan(booking, m)

		// Single-step writes bound to the locked transaction
		store := &repository{db: tx}
		if m.DeleteAll {
			return store.Delete(ctx, id, variant)
		}
		for _, slot := range m.RemoveSlots {
			if _, err := store.RemoveSlot(ctx, id, variant, slot); err != nil {
				return err
			}
		}
		if m.DecrementBy > 0 {
			if err := store.DecrementAmount(ctx, id, variant, m.DecrementBy); err != nil {
				return err
			}
		}
		_, err = store.DeleteIfEmpty(ctx, id, variant)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// slotsJSON encodes slots for a raw column update, where the model
// serializer does not run.
func slotsJSON(slots []Slot) (clause.Expr, error) {
	data, err := json.Marshal(slots)
	if err != nil {
		return clause.Expr{}, fmt.Errorf("failed to encode slots: %w", err)
	}
	return gorm.Expr("?::jsonb", string(data)), nil
}

// Plan applies m to booking in memory and reports the resulting state.
func Plan(booking *Booking, m Mutation) *MutationResult {
	booking.Slots = withoutSlots(booking.Slots, m.RemoveSlots)

	cents := money.ToCents(booking.Amount) - money.ToCents(m.DecrementBy)
	if cents < 0 {
		cents = 0
	}
	booking.Amount = money.FromCents(cents)

	return &MutationResult{
		RemainingSlots:  len(booking.Slots),
		RemainingAmount: booking.Amount,
		Deleted:         m.DeleteAll || len(booking.Slots) == 0,
	}
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (*Booking, bool, error) {
	var (
		booking *Booking
		already bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		for _, variant := range Variants {
			booking, err = findIn(tx, id, variant, true)
			if err == nil {
				break
			}
			if !errors.Is(err, ErrBookingNotFound) {
				return err
			}
		}
		if booking == nil {
			return ErrBookingNotFound
		}

		if booking.AdminPaid {
			already = true
			return nil
		}

		payment := Payment{Method: booking.PaymentMethod, Paid: booking.Paid}.MarkPaid()
		booking.PaymentMethod = payment.Method
		booking.Paid = payment.Paid
		booking.AdminPaid = true

		return tx.Table(booking.Variant.Table()).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"payment_method": booking.PaymentMethod,
				"paid":           booking.Paid,
				"admin_paid":     true,
			}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return booking, already, nil
}
