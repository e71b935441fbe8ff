package repository

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/realtime"
	apperrors "storefront/pkg/errors"
)

const usersRoot = "users"

type realtimeUserRepository struct {
	store realtime.DocumentStore
}

func NewRealtimeUserRepository(store realtime.DocumentStore) repository.UserRepository {
	return &realtimeUserRepository{
		store: store,
	}
}

func (r *realtimeUserRepository) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	path, err := realtime.Join(usersRoot, uid)
	if err != nil {
		return nil, pathError(err)
	}

	snap, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, apperrors.Store("Failed to get user profile", err)
	}
	if !snap.Exists() {
		return nil, apperrors.NotFound("User profile", nil)
	}

	var profile entity.UserProfile
	if err := snap.Unmarshal(&profile); err != nil {
		return nil, apperrors.Parse("Failed to parse user profile", err)
	}
	return &profile, nil
}

func (r *realtimeUserRepository) SaveProfile(ctx context.Context, uid string, profile *entity.UserProfile) error {
	path, err := realtime.Join(usersRoot, uid)
	if err != nil {
		return pathError(err)
	}

	if err := r.store.Write(ctx, path, profile); err != nil {
		return apperrors.Store("Failed to save user profile", err)
	}
	return nil
}

func (r *realtimeUserRepository) UpdateProfile(ctx context.Context, uid string, fields map[string]interface{}) error {
	path, err := realtime.Join(usersRoot, uid)
	if err != nil {
		return pathError(err)
	}

	if err := r.store.Update(ctx, path, fields); err != nil {
		return apperrors.Store("Failed to update user profile", err)
	}
	return nil
}
