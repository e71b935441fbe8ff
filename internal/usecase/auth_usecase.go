package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/pkg/errors"
	"storefront/pkg/logger"
)

// ClaimNames are the custom claims that carry capabilities.
type ClaimNames struct {
	Seller string
	Admin  string
}

type AuthUseCase struct {
	userRepo repository.UserRepository
	identity IdentityProvider
	sellers  SellerPolicy
	claims   ClaimNames
}

func NewAuthUseCase(userRepo repository.UserRepository, identity IdentityProvider, sellers SellerPolicy, claims ClaimNames) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		identity: identity,
		sellers:  sellers,
		claims:   claims,
	}
}

type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	DisplayName string  `json:"displayName" validate:"required,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,e164"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type UpdateProfileInput struct {
	DisplayName   *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	AvatarIcon    *string `json:"avatarIcon" validate:"omitempty,max=64"`
	AvatarBgColor *string `json:"avatarBgColor" validate:"omitempty,max=32"`
}

type AuthResult struct {
	Token   *entity.AuthToken   `json:"token"`
	Session *entity.UserSession `json:"user"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	token, err := uc.identity.SignUp(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		return nil, err
	}

	profile := &entity.UserProfile{
		DisplayName: input.DisplayName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Gender:      input.Gender,
		TotalScore:  0,
	}
	if err := uc.userRepo.SaveProfile(ctx, token.UID, profile); err != nil {
		logger.Error("Failed to save profile for new user %s: %v", token.UID, err)
		return nil, err
	}

	return uc.result(ctx, token)
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	token, err := uc.identity.SignIn(ctx, email, password)
	if err != nil {
		logger.Debug("Login failed for %s: %v", email, err)
		return nil, err
	}
	return uc.result(ctx, token)
}

// LoginWithGoogle signs in with a Google credential and creates the stored
// profile on first sign-in. An existing profile is left untouched.
func (uc *AuthUseCase) LoginWithGoogle(ctx context.Context, credential string) (*AuthResult, error) {
	token, err := uc.identity.SignInWithGoogle(ctx, credential)
	if err != nil {
		return nil, err
	}

	identity, err := uc.identity.GetIdentity(ctx, token.UID)
	if err != nil {
		return nil, err
	}

	_, err = uc.userRepo.GetProfile(ctx, token.UID)
	if errors.Is(err, errors.CodeNotFound) {
		profile := &entity.UserProfile{
			DisplayName: identity.DisplayName,
			Email:       identity.Email,
			TotalScore:  0,
		}
		if err := uc.userRepo.SaveProfile(ctx, token.UID, profile); err != nil {
			return nil, err
		}
	} else if err != nil {
		logger.Warn("Could not check profile of %s: %v", token.UID, err)
	}

	return &AuthResult{
		Token:   token,
		Session: uc.SessionFor(ctx, identity),
	}, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, uid string) error {
	return uc.identity.SignOut(ctx, uid)
}

// ResolveSession turns a bearer token into the live session.
func (uc *AuthUseCase) ResolveSession(ctx context.Context, token string) (*entity.UserSession, error) {
	if token == "" {
		return nil, errors.Unauthenticated("not authenticated")
	}
	identity, err := uc.identity.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.SessionFor(ctx, identity), nil
}

// SessionFor merges the identity with the stored profile. A missing or
// unreadable profile and a malformed avatar only drop the affected fields.
func (uc *AuthUseCase) SessionFor(ctx context.Context, identity *entity.Identity) *entity.UserSession {
	session := &entity.UserSession{
		UID:         identity.UID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		PhoneNumber: identity.PhoneNumber,
		IsSeller:    uc.sellers.IsSeller(identity),
		IsAdmin:     HasClaim(identity, uc.claims.Admin),
	}

	profile, err := uc.userRepo.GetProfile(ctx, identity.UID)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		logger.Warn("Profile of %s unavailable: %v", identity.UID, err)
	}
	if profile != nil {
		if session.DisplayName == "" {
			session.DisplayName = profile.DisplayName
		}
		if session.Email == "" {
			session.Email = profile.Email
		}
		if session.PhoneNumber == "" && profile.PhoneNumber != nil {
			session.PhoneNumber = *profile.PhoneNumber
		}
	}

	if avatar := ParseAvatar(identity.PhotoURL); avatar != nil {
		icon := avatar.AvatarIcon
		session.AvatarIcon = &icon
		session.AvatarBgColor = avatar.AvatarBgColor
	} else if profile != nil && profile.AvatarIcon != nil {
		icon := *profile.AvatarIcon
		session.AvatarIcon = &icon
		if profile.AvatarBgColor != nil {
			session.AvatarBgColor = *profile.AvatarBgColor
		}
	}

	return session
}

// ParseAvatar reads the avatar descriptor carried in a photo URL. Plain URLs
// and malformed JSON yield nil.
func ParseAvatar(photoURL string) *entity.AvatarDescriptor {
	if !strings.HasPrefix(photoURL, "{") {
		return nil
	}

	var avatar entity.AvatarDescriptor
	if err := json.Unmarshal([]byte(photoURL), &avatar); err != nil {
		logger.Warn("%v", errors.Parse("Malformed avatar descriptor", err))
		return nil
	}
	return &avatar
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, session *entity.UserSession, input UpdateProfileInput) (*entity.UserSession, error) {
	if session == nil {
		return nil, errors.Unauthenticated("not authenticated")
	}

	fields := make(map[string]interface{})
	displayName := ""
	if input.DisplayName != nil {
		displayName = strings.TrimSpace(*input.DisplayName)
		if displayName == "" {
			return nil, errors.Validation("display name must not be empty")
		}
		fields["displayName"] = displayName
	}

	photoURL := ""
	if input.AvatarIcon != nil || input.AvatarBgColor != nil {
		avatar := entity.AvatarDescriptor{AvatarBgColor: session.AvatarBgColor}
		if session.AvatarIcon != nil {
			avatar.AvatarIcon = *session.AvatarIcon
		}
		if input.AvatarIcon != nil {
			avatar.AvatarIcon = *input.AvatarIcon
		}
		if input.AvatarBgColor != nil {
			avatar.AvatarBgColor = *input.AvatarBgColor
		}

		raw, err := json.Marshal(avatar)
		if err != nil {
			return nil, errors.Internal("Failed to encode avatar", err)
		}
		photoURL = string(raw)
		fields["avatarIcon"] = avatar.AvatarIcon
		fields["avatarBgColor"] = avatar.AvatarBgColor
	}

	if len(fields) == 0 {
		return session, nil
	}

	if err := uc.identity.UpdateProfile(ctx, session.UID, displayName, photoURL); err != nil {
		return nil, err
	}
	if err := uc.userRepo.UpdateProfile(ctx, session.UID, fields); err != nil {
		return nil, err
	}

	identity, err := uc.identity.GetIdentity(ctx, session.UID)
	if err != nil {
		return nil, err
	}
	return uc.SessionFor(ctx, identity), nil
}

// SetSeller grants or revokes the seller capability. It takes effect on the
// user's next token refresh.
func (uc *AuthUseCase) SetSeller(ctx context.Context, uid string, seller bool) error {
	identity, err := uc.identity.GetIdentity(ctx, uid)
	if err != nil {
		return err
	}

	claims := make(map[string]interface{}, len(identity.Claims)+1)
	for k, v := range identity.Claims {
		claims[k] = v
	}
	if seller {
		claims[uc.claims.Seller] = true
	} else {
		delete(claims, uc.claims.Seller)
	}

	if err := uc.identity.SetCustomClaims(ctx, uid, claims); err != nil {
		return err
	}

	logger.Info("Seller capability of %s set to %t", uid, seller)
	return nil
}

func (uc *AuthUseCase) result(ctx context.Context, token *entity.AuthToken) (*AuthResult, error) {
	identity, err := uc.identity.GetIdentity(ctx, token.UID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:   token,
		Session: uc.SessionFor(ctx, identity),
	}, nil
}
