package memberships

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kreede/internal/shared/apperror"
	"kreede/internal/users"
	"kreede/pkg/logger"

	"github.com/google/uuid"
)

// Service owns the games_used counter. Nothing outside this package writes it.
type Service interface {
	ResolveUser(ctx context.Context, email, usernameHint string) (uuid.UUID, error)
	RestoreOneCredit(ctx context.Context, userID uuid.UUID) (bool, error)
	ConsumeCredits(ctx context.Context, userID uuid.UUID, count int) (bool, error)
	GetCredits(ctx context.Context, userID uuid.UUID) (*CreditSummary, error)
}

type service struct {
	repo  Repository
	users users.Repository
	log   *logger.Logger
}

func NewService(repo Repository, userRepo users.Repository, log *logger.Logger) Service {
	return &service{repo: repo, users: userRepo, log: log}
}

func (s *service) ResolveUser(ctx context.Context, email, usernameHint string) (uuid.UUID, error) {
	user, err := s.users.FindByEmailOrUsername(ctx, email, usernameHint)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return uuid.Nil, apperror.NotFound("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user.ID, nil
}

// RestoreOneCredit returns false both when no PAID membership exists and when
// the membership is already at zero used credits.
func (s *service) RestoreOneCredit(ctx context.Context, userID uuid.UUID) (bool, error) {
	restored, err := s.repo.RestoreOne(ctx, userID)
	if err != nil {
		return false, err
	}
	if restored {
		s.log.LogCreditRestored(ctx, userID.String())
	} else {
		s.log.InfoContext(ctx, "No membership credit restored", slog.String("user_id", userID.String()))
	}
	return restored, nil
}

func (s *service) ConsumeCredits(ctx context.Context, userID uuid.UUID, count int) (bool, error) {
	if count <= 0 {
		return false, apperror.Validation("count must be positive")
	}
	return s.repo.Consume(ctx, userID, count)
}

func (s *service) GetCredits(ctx context.Context, userID uuid.UUID) (*CreditSummary, error) {
	m, err := s.repo.GetLatestPaid(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, apperror.NotFound("no paid membership for user")
		}
		return nil, err
	}
	return &CreditSummary{
		MembershipID: m.ID,
		UserID:       m.UserID,
		Games:        m.Games,
		GamesUsed:    m.GamesUsed,
		Remaining:    m.Remaining(),
		Status:       m.Status,
	}, nil
}
