package bookings

import (
	"context"
	"errors"
	"log/slog"

	"kreede/internal/shared/apperror"
	"kreede/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*MarkPaidResponse, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) Service {
	return &service{repo: repo, log: log}
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.FindByIDAcrossVariants(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, err
	}
	return booking, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*MarkPaidResponse, error) {
	booking, already, err := s.repo.MarkPaid(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, err
	}

	if already {
		return &MarkPaidResponse{OK: true, Already: true}, nil
	}

	s.log.InfoContext(ctx, "Booking marked paid",
		slog.String("booking_id", id.String()),
		slog.String("variant", string(booking.Variant)),
		slog.String("payment_ref", booking.PaymentRef()),
	)
	return &MarkPaidResponse{OK: true, PaymentRef: booking.PaymentRef()}, nil
}
