package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	// FindByEmailOrUsername matches email case-insensitively or username
	// exactly; either is sufficient. Empty inputs are ignored.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" && username == "" {
		return nil, ErrUserNotFound
	}

	query := r.db.WithContext(ctx).Model(&User{})
	switch {
	case email != "" && username != "":
		query = query.Where("LOWER(email) = ? OR username = ?", strings.ToLower(email), username)
	case email != "":
		query = query.Where("LOWER(email) = ?", strings.ToLower(email))
	default:
		query = query.Where("username = ?", username)
	}

	var user User
	if err := query.Order("created_at ASC").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
