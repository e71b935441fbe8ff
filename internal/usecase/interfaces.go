package usecase

import (
	"context"
	"io"
	"time"

	"storefront/internal/domain/entity"
)

// IdentityProvider is the external account service.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*entity.AuthToken, error)
	SignIn(ctx context.Context, email, password string) (*entity.AuthToken, error)
	SignInWithGoogle(ctx context.Context, credential string) (*entity.AuthToken, error)
	// VerifyToken resolves a live session; revoked tokens fail.
	VerifyToken(ctx context.Context, token string) (*entity.Identity, error)
	GetIdentity(ctx context.Context, uid string) (*entity.Identity, error)
	// UpdateProfile leaves empty arguments unchanged.
	UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error
	SignOut(ctx context.Context, uid string) error
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

// ActionLimiter throttles user actions such as submitting reviews.
type ActionLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}

// FileStorage uploads product images.
type FileStorage interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
}
