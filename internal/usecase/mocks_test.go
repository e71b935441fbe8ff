package usecase

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/entity"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, productID, id string) (*entity.Review, error) {
	args := m.Called(ctx, productID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, productID, id string) error {
	args := m.Called(ctx, productID, id)
	return args.Error(0)
}

func (m *mockReviewRepository) Subscribe(ctx context.Context, productID string, onChange func([]entity.Review)) (func(), error) {
	args := m.Called(ctx, productID, onChange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// --- Mock Identity Provider ---

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) SignUp(ctx context.Context, email, password, displayName string) (*entity.AuthToken, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthToken), args.Error(1)
}

func (m *mockIdentityProvider) SignIn(ctx context.Context, email, password string) (*entity.AuthToken, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthToken), args.Error(1)
}

func (m *mockIdentityProvider) SignInWithGoogle(ctx context.Context, credential string) (*entity.AuthToken, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthToken), args.Error(1)
}

func (m *mockIdentityProvider) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockIdentityProvider) GetIdentity(ctx context.Context, uid string) (*entity.Identity, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockIdentityProvider) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error {
	args := m.Called(ctx, uid, displayName, photoURL)
	return args.Error(0)
}

func (m *mockIdentityProvider) SignOut(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *mockIdentityProvider) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	args := m.Called(ctx, uid, claims)
	return args.Error(0)
}

// --- Mock File Storage ---

type mockFileStorage struct {
	mock.Mock
}

func (m *mockFileStorage) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	args := m.Called(ctx, file, contentType, folder)
	return args.String(0), args.Error(1)
}
