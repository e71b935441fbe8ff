package repository

import (
	"context"

	"storefront/internal/domain/entity"
)

type UserRepository interface {
	GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error)
	SaveProfile(ctx context.Context, uid string, profile *entity.UserProfile) error
	// UpdateProfile merges the given profile fields.
	UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error
}
