package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapter/repository"
	"storefront/internal/domain/entity"
	"storefront/internal/infrastructure/realtime"
	apperrors "storefront/pkg/errors"
)

func newAuthUseCase(idp *mockIdentityProvider) (*AuthUseCase, *realtime.MemoryStore) {
	store := realtime.NewMemoryStore()
	uc := NewAuthUseCase(
		repository.NewRealtimeUserRepository(store),
		idp,
		NewClaimsSellerPolicy("seller"),
		ClaimNames{Seller: "seller", Admin: "admin"},
	)
	return uc, store
}

func strPtr(s string) *string { return &s }

func TestRegisterStoresProfile(t *testing.T) {
	ctx := context.Background()
	idp := new(mockIdentityProvider)
	uc, store := newAuthUseCase(idp)

	idp.On("SignUp", mock.Anything, "ana@example.com", "secret1", "Ana").
		Return(&entity.AuthToken{UID: "u1", IDToken: "tok", IsNewUser: true}, nil)
	idp.On("GetIdentity", mock.Anything, "u1").
		Return(&entity.Identity{UID: "u1", Email: "ana@example.com", DisplayName: "Ana"}, nil)

	result, err := uc.Register(ctx, RegisterInput{
		Email:       "ana@example.com",
		Password:    "secret1",
		DisplayName: "Ana",
		Gender:      strPtr("female"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", result.Token.IDToken)
	assert.Equal(t, "Ana", result.Session.DisplayName)
	assert.False(t, result.Session.IsSeller)

	snap, err := store.Read(ctx, "users/u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ana","email":"ana@example.com","gender":"female","totalScore":0}`, string(snap.Raw()))
}

func TestRegisterSurfacesProviderError(t *testing.T) {
	idp := new(mockIdentityProvider)
	uc, _ := newAuthUseCase(idp)

	idp.On("SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.Conflict("Email already in use"))

	_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "secret1", DisplayName: "A"})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestLoginWithGoogleCreatesProfileOnce(t *testing.T) {
	ctx := context.Background()
	idp := new(mockIdentityProvider)
	uc, store := newAuthUseCase(idp)

	idp.On("SignInWithGoogle", mock.Anything, "cred").
		Return(&entity.AuthToken{UID: "g1", IDToken: "tok"}, nil)
	idp.On("GetIdentity", mock.Anything, "g1").
		Return(&entity.Identity{UID: "g1", Email: "g@example.com", DisplayName: "Gee"}, nil)

	_, err := uc.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "users/g1", map[string]interface{}{"totalScore": 7}))

	result, err := uc.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, "Gee", result.Session.DisplayName)

	snap, err := store.Read(ctx, "users/g1/totalScore")
	require.NoError(t, err)
	assert.JSONEq(t, `7`, string(snap.Raw()))
}

func TestResolveSessionMergesAvatarAndClaims(t *testing.T) {
	ctx := context.Background()
	idp := new(mockIdentityProvider)
	uc, _ := newAuthUseCase(idp)

	idp.On("VerifyToken", mock.Anything, "tok").Return(&entity.Identity{
		UID:         "u1",
		Email:       "ana@example.com",
		DisplayName: "Ana",
		PhotoURL:    `{"avatarIcon":"fox","avatarBgColor":"#ffaa00"}`,
		Claims:      map[string]interface{}{"seller": true, "admin": "true"},
	}, nil)

	session, err := uc.ResolveSession(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, session.AvatarIcon)
	assert.Equal(t, "fox", *session.AvatarIcon)
	assert.Equal(t, "#ffaa00", session.AvatarBgColor)
	assert.True(t, session.IsSeller)
	assert.True(t, session.IsAdmin)
}

func TestResolveSessionMalformedAvatarDegrades(t *testing.T) {
	idp := new(mockIdentityProvider)
	uc, _ := newAuthUseCase(idp)

	idp.On("VerifyToken", mock.Anything, "tok").Return(&entity.Identity{
		UID:      "u1",
		PhotoURL: `{"avatarIcon":`,
	}, nil)

	session, err := uc.ResolveSession(context.Background(), "tok")
	require.NoError(t, err)
	assert.Nil(t, session.AvatarIcon)
	assert.Empty(t, session.AvatarBgColor)
}

func TestResolveSessionRejectsMissingToken(t *testing.T) {
	uc, _ := newAuthUseCase(new(mockIdentityProvider))

	_, err := uc.ResolveSession(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthenticated))
}

func TestParseAvatar(t *testing.T) {
	assert.Nil(t, ParseAvatar(""))
	assert.Nil(t, ParseAvatar("https://example.com/me.png"))
	assert.Nil(t, ParseAvatar("{not json"))

	avatar := ParseAvatar(`{"avatarIcon":"cat","avatarBgColor":"blue"}`)
	require.NotNil(t, avatar)
	assert.Equal(t, "cat", avatar.AvatarIcon)
	assert.Equal(t, "blue", avatar.AvatarBgColor)
}

func TestUpdateProfileWritesAvatarDescriptor(t *testing.T) {
	ctx := context.Background()
	idp := new(mockIdentityProvider)
	uc, store := newAuthUseCase(idp)
	session := &entity.UserSession{UID: "u1", DisplayName: "Ana", AvatarBgColor: "red"}

	idp.On("UpdateProfile", mock.Anything, "u1", "", `{"avatarIcon":"owl","avatarBgColor":"red"}`).Return(nil)
	idp.On("GetIdentity", mock.Anything, "u1").Return(&entity.Identity{
		UID:         "u1",
		DisplayName: "Ana",
		PhotoURL:    `{"avatarIcon":"owl","avatarBgColor":"red"}`,
	}, nil)

	updated, err := uc.UpdateProfile(ctx, session, UpdateProfileInput{AvatarIcon: strPtr("owl")})
	require.NoError(t, err)
	require.NotNil(t, updated.AvatarIcon)
	assert.Equal(t, "owl", *updated.AvatarIcon)

	snap, err := store.Read(ctx, "users/u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"avatarIcon":"owl","avatarBgColor":"red"}`, string(snap.Raw()))
	idp.AssertExpectations(t)
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	uc, _ := newAuthUseCase(new(mockIdentityProvider))

	_, err := uc.UpdateProfile(context.Background(), &entity.UserSession{UID: "u1"},
		UpdateProfileInput{DisplayName: strPtr("   ")})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestSetSellerKeepsOtherClaims(t *testing.T) {
	idp := new(mockIdentityProvider)
	uc, _ := newAuthUseCase(idp)

	idp.On("GetIdentity", mock.Anything, "u1").
		Return(&entity.Identity{UID: "u1", Claims: map[string]interface{}{"admin": true}}, nil)
	idp.On("SetCustomClaims", mock.Anything, "u1", map[string]interface{}{"admin": true, "seller": true}).Return(nil)

	require.NoError(t, uc.SetSeller(context.Background(), "u1", true))
	idp.AssertExpectations(t)
}

func TestClaimsSellerPolicy(t *testing.T) {
	policy := NewClaimsSellerPolicy("seller")

	assert.False(t, policy.IsSeller(nil))
	assert.False(t, policy.IsSeller(&entity.Identity{}))
	assert.True(t, policy.IsSeller(&entity.Identity{Claims: map[string]interface{}{"seller": true}}))
	assert.True(t, policy.IsSeller(&entity.Identity{Claims: map[string]interface{}{"seller": float64(1)}}))
	assert.False(t, policy.IsSeller(&entity.Identity{Claims: map[string]interface{}{"seller": false}}))
}
