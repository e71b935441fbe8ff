package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/sony/gobreaker/v2"

	"storefront/internal/domain/entity"
	apperrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// errCredentials marks a 4xx answer from Identity Toolkit. It is the caller's
// fault, so it does not count against the breaker.
var errCredentials = errors.New("identity toolkit rejected credentials")

type toolkitError struct {
	Status  int
	Message string
}

func (e *toolkitError) Error() string {
	return fmt.Sprintf("identity toolkit %d: %s", e.Status, e.Message)
}

func (e *toolkitError) Unwrap() error {
	if e.Status < http.StatusInternalServerError {
		return errCredentials
	}
	return nil
}

// AuthClient combines the Admin SDK (accounts, token checks, claims) with the
// Identity Toolkit REST API for password and Google sign-in, which the Admin
// SDK does not offer.
type AuthClient struct {
	client  *auth.Client
	apiKey  string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewAuthClient(client *auth.Client, apiKey string) *AuthClient {
	settings := gobreaker.Settings{
		Name:        "identity-toolkit",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCredentials)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &AuthClient{
		client:  client,
		apiKey:  apiKey,
		baseURL: identityToolkitURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (f *AuthClient) SignUp(ctx context.Context, email, password, displayName string) (*entity.AuthToken, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, apperrors.Conflict("Email already in use")
		}
		return nil, apperrors.Internal("Failed to create user in authentication provider", err)
	}

	token, err := f.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token.UID = user.UID
	token.IsNewUser = true
	return token, nil
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	IsNewUser    bool   `json:"isNewUser"`
}

func (r *signInResponse) token() *entity.AuthToken {
	seconds, _ := strconv.Atoi(r.ExpiresIn)
	return &entity.AuthToken{
		UID:          r.LocalID,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    time.Duration(seconds) * time.Second,
		IsNewUser:    r.IsNewUser,
	}
}

func (f *AuthClient) SignIn(ctx context.Context, email, password string) (*entity.AuthToken, error) {
	var resp signInResponse
	err := f.call(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, f.mapSignInError(err)
	}
	return resp.token(), nil
}

// SignInWithGoogle exchanges a Google ID token for a session, creating the
// account on first use.
func (f *AuthClient) SignInWithGoogle(ctx context.Context, credential string) (*entity.AuthToken, error) {
	postBody := url.Values{}
	postBody.Set("id_token", credential)
	postBody.Set("providerId", "google.com")

	var resp signInResponse
	err := f.call(ctx, "accounts:signInWithIdp", map[string]interface{}{
		"postBody":            postBody.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, f.mapSignInError(err)
	}
	return resp.token(), nil
}

func (f *AuthClient) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	verified, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token", err)
	}

	identity, err := f.GetIdentity(ctx, verified.UID)
	if err != nil {
		return nil, err
	}
	if identity.Claims == nil {
		identity.Claims = verified.Claims
	}
	return identity, nil
}

func (f *AuthClient) GetIdentity(ctx context.Context, uid string) (*entity.Identity, error) {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal("Failed to load user from authentication provider", err)
	}

	return &entity.Identity{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhoneNumber: user.PhoneNumber,
		PhotoURL:    user.PhotoURL,
		Claims:      user.CustomClaims,
	}, nil
}

func (f *AuthClient) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error {
	params := &auth.UserToUpdate{}
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	if photoURL != "" {
		params = params.PhotoURL(photoURL)
	}

	if _, err := f.client.UpdateUser(ctx, uid, params); err != nil {
		return apperrors.Internal("Failed to update user profile", err)
	}
	return nil
}

// SignOut revokes every refresh token; outstanding ID tokens fail the
// revocation check from now on.
func (f *AuthClient) SignOut(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return apperrors.Internal("Failed to revoke session", err)
	}
	return nil
}

func (f *AuthClient) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if err := f.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		if auth.IsUserNotFound(err) {
			return apperrors.NotFound("User", err)
		}
		return apperrors.Internal("Failed to set custom claims", err)
	}
	return nil
}

func (f *AuthClient) mapSignInError(err error) error {
	var tkErr *toolkitError
	if errors.As(err, &tkErr) && tkErr.Status < http.StatusInternalServerError {
		return apperrors.Unauthorized("Invalid credentials", err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.New("SERVICE_UNAVAILABLE", "Authentication is temporarily unavailable", http.StatusServiceUnavailable, err)
	}
	return apperrors.Internal("Sign-in failed", err)
}

func (f *AuthClient) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	if f.apiKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	raw, err := f.breaker.Execute(func() ([]byte, error) {
		endpoint := fmt.Sprintf("%s/%s?key=%s", f.baseURL, method, url.QueryEscape(f.apiKey))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			var envelope struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			json.Unmarshal(data, &envelope)
			return nil, &toolkitError{Status: resp.StatusCode, Message: envelope.Error.Message}
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}
