package firebase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain/entity"
	apperrors "storefront/pkg/errors"
)

const devIssuer = "storefront-dev"

// DevAuthClient is an in-process identity provider for the memory backend.
// It issues HS256 tokens and keeps bcrypt password hashes in memory. Google
// credentials are read without signature checks, so it must never face
// real traffic.
type DevAuthClient struct {
	secret []byte
	expiry time.Duration

	mu       sync.Mutex
	accounts map[string]*devAccount
	byEmail  map[string]string
}

type devAccount struct {
	identity   entity.Identity
	hash       []byte
	generation int
}

type devClaims struct {
	Email      string `json:"email,omitempty"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

func NewDevAuthClient(secret string, expiry time.Duration) *DevAuthClient {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &DevAuthClient{
		secret:   []byte(secret),
		expiry:   expiry,
		accounts: make(map[string]*devAccount),
		byEmail:  make(map[string]string),
	}
}

func (d *DevAuthClient) SignUp(ctx context.Context, email, password, displayName string) (*entity.AuthToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return nil, apperrors.Conflict("Email already in use")
	}

	acc := d.createLocked(email, displayName)
	acc.hash = hash

	token, err := d.issueLocked(acc)
	if err != nil {
		return nil, err
	}
	token.IsNewUser = true
	return token, nil
}

func (d *DevAuthClient) SignIn(ctx context.Context, email, password string) (*entity.AuthToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	d.mu.Lock()
	defer d.mu.Unlock()

	uid, ok := d.byEmail[email]
	if !ok {
		return nil, apperrors.Unauthorized("Invalid credentials", nil)
	}
	acc := d.accounts[uid]
	if acc.hash == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, apperrors.Unauthorized("Invalid credentials", nil)
	}

	return d.issueLocked(acc)
}

// SignInWithGoogle trusts the email and name inside the credential.
func (d *DevAuthClient) SignInWithGoogle(ctx context.Context, credential string) (*entity.AuthToken, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil, apperrors.Unauthorized("Invalid Google credential", err)
	}

	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.Unauthorized("Google credential carries no email", nil)
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	d.mu.Lock()
	defer d.mu.Unlock()

	isNew := false
	acc, ok := d.accounts[d.byEmail[email]]
	if !ok {
		acc = d.createLocked(email, name)
		acc.identity.PhotoURL = picture
		isNew = true
	}

	token, err := d.issueLocked(acc)
	if err != nil {
		return nil, err
	}
	token.IsNewUser = isNew
	return token, nil
}

func (d *DevAuthClient) VerifyToken(ctx context.Context, token string) (*entity.Identity, error) {
	claims := &devClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[claims.Subject]
	if !ok {
		return nil, apperrors.Unauthorized("Unknown account", nil)
	}
	if claims.Generation != acc.generation {
		return nil, apperrors.Unauthorized("Session has been revoked", nil)
	}

	identity := acc.identity
	identity.Claims = copyClaims(acc.identity.Claims)
	return &identity, nil
}

func (d *DevAuthClient) GetIdentity(ctx context.Context, uid string) (*entity.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[uid]
	if !ok {
		return nil, apperrors.NotFound("User", nil)
	}
	identity := acc.identity
	identity.Claims = copyClaims(acc.identity.Claims)
	return &identity, nil
}

func (d *DevAuthClient) UpdateProfile(ctx context.Context, uid, displayName, photoURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[uid]
	if !ok {
		return apperrors.NotFound("User", nil)
	}
	if displayName != "" {
		acc.identity.DisplayName = displayName
	}
	if photoURL != "" {
		acc.identity.PhotoURL = photoURL
	}
	return nil
}

// SignOut invalidates every token issued so far for uid.
func (d *DevAuthClient) SignOut(ctx context.Context, uid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[uid]
	if !ok {
		return apperrors.NotFound("User", nil)
	}
	acc.generation++
	return nil
}

func (d *DevAuthClient) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.accounts[uid]
	if !ok {
		return apperrors.NotFound("User", nil)
	}
	acc.identity.Claims = copyClaims(claims)
	return nil
}

func (d *DevAuthClient) createLocked(email, displayName string) *devAccount {
	acc := &devAccount{
		identity: entity.Identity{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
		},
	}
	d.accounts[acc.identity.UID] = acc
	d.byEmail[email] = acc.identity.UID
	return acc
}

func (d *DevAuthClient) issueLocked(acc *devAccount) (*entity.AuthToken, error) {
	now := time.Now().UTC()
	claims := &devClaims{
		Email:      acc.identity.Email,
		Generation: acc.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.identity.UID,
			Issuer:    devIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return nil, apperrors.Internal("Failed to sign token", err)
	}

	return &entity.AuthToken{
		UID:       acc.identity.UID,
		IDToken:   signed,
		ExpiresIn: d.expiry,
	}, nil
}

func copyClaims(claims map[string]interface{}) map[string]interface{} {
	if claims == nil {
		return nil
	}
	out := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out
}
