package firebase

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storefront/pkg/errors"
)

func TestDevAuthSignUpAndVerify(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	token, err := client.SignUp(ctx, "Ana@Example.com", "hunter22", "Ana")
	require.NoError(t, err)
	assert.True(t, token.IsNewUser)
	assert.NotEmpty(t, token.UID)

	identity, err := client.VerifyToken(ctx, token.IDToken)
	require.NoError(t, err)
	assert.Equal(t, token.UID, identity.UID)
	assert.Equal(t, "ana@example.com", identity.Email)
	assert.Equal(t, "Ana", identity.DisplayName)
}

func TestDevAuthRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	_, err := client.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)

	_, err = client.SignUp(ctx, "ana@example.com", "other", "Ana 2")
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestDevAuthSignInChecksPassword(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	_, err := client.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)

	_, err = client.SignIn(ctx, "ana@example.com", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	_, err = client.SignIn(ctx, "nobody@example.com", "hunter22")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	token, err := client.SignIn(ctx, "ana@example.com", "hunter22")
	require.NoError(t, err)
	assert.False(t, token.IsNewUser)
}

func TestDevAuthSignOutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	token, err := client.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(ctx, token.UID))

	_, err = client.VerifyToken(ctx, token.IDToken)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	fresh, err := client.SignIn(ctx, "ana@example.com", "hunter22")
	require.NoError(t, err)
	_, err = client.VerifyToken(ctx, fresh.IDToken)
	assert.NoError(t, err)
}

func TestDevAuthRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	issuer := NewDevAuthClient("one", time.Hour)
	verifier := NewDevAuthClient("two", time.Hour)

	token, err := issuer.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(ctx, token.IDToken)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestDevAuthGoogleCreatesOnce(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	credential, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "g@example.com",
		"name":  "Gee",
	}).SignedString([]byte("google"))
	require.NoError(t, err)

	first, err := client.SignInWithGoogle(ctx, credential)
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)

	second, err := client.SignInWithGoogle(ctx, credential)
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.UID, second.UID)

	_, err = client.SignInWithGoogle(ctx, "not-a-jwt")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestDevAuthClaimsAndProfile(t *testing.T) {
	ctx := context.Background()
	client := NewDevAuthClient("secret", time.Hour)

	token, err := client.SignUp(ctx, "ana@example.com", "hunter22", "Ana")
	require.NoError(t, err)

	require.NoError(t, client.SetCustomClaims(ctx, token.UID, map[string]interface{}{"seller": true}))
	require.NoError(t, client.UpdateProfile(ctx, token.UID, "Ana B", `{"avatarIcon":"fox","avatarBgColor":"#fff"}`))

	identity, err := client.VerifyToken(ctx, token.IDToken)
	require.NoError(t, err)
	assert.Equal(t, true, identity.Claims["seller"])
	assert.Equal(t, "Ana B", identity.DisplayName)
	assert.Equal(t, `{"avatarIcon":"fox","avatarBgColor":"#fff"}`, identity.PhotoURL)

	err = client.SetCustomClaims(ctx, "missing", nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}
