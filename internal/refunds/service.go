package refunds

import (
	"context"
	"errors"
	"log/slog"

	"kreede/internal/gateway"
	"kreede/internal/shared/apperror"
	"kreede/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context, query ListQuery) (*PaginatedRefunds, error)
	Get(ctx context.Context, id uuid.UUID) (*RefundRecord, error)
	// Sync asks the gateway about a PENDING record and promotes it when the
	// gateway has decided.
	Sync(ctx context.Context, id uuid.UUID) (*RefundRecord, error)
}

type service struct {
	repo    Repository
	gateway gateway.Client
	log     *logger.Logger
}

func NewService(repo Repository, gw gateway.Client, log *logger.Logger) Service {
	return &service{repo: repo, gateway: gw, log: log}
}

func (s *service) List(ctx context.Context, query ListQuery) (*PaginatedRefunds, error) {
	records, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))

	return &PaginatedRefunds{
		Refunds:    records,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*RefundRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRefundNotFound) {
			return nil, apperror.NotFound("refund record not found")
		}
		return nil, err
	}
	return record, nil
}

func (s *service) Sync(ctx context.Context, id uuid.UUID) (*RefundRecord, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusPending {
		return record, nil
	}
	if record.Gateway != GatewayPayment || record.OrderID == "" || record.RefundID == "" {
		return nil, apperror.Validation("refund record has no gateway refund to sync")
	}

	polled := s.gateway.PollStatus(ctx, record.OrderID, record.RefundID)
	status := polled.Status
	if status == gateway.StatusPending {
		return record, nil
	}

	promoted, err := s.repo.PromoteStatus(ctx, id, Status(status), polled.StatusDescription)
	if err != nil {
		return nil, err
	}
	if promoted {
		s.log.InfoContext(ctx, "Refund status promoted",
			slog.String("refund_record_id", id.String()),
			slog.String("status", string(status)),
		)
	}
	return s.Get(ctx, id)
}
