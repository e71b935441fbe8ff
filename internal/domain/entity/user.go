package entity

import "time"

// Identity is what the identity provider knows about an account.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhoneNumber string
	PhotoURL    string
	Claims      map[string]interface{}
}

// UserProfile is the record stored at users/{uid}.
type UserProfile struct {
	DisplayName   string  `json:"displayName"`
	Email         string  `json:"email"`
	PhoneNumber   *string `json:"phoneNumber"`
	Gender        *string `json:"gender"`
	TotalScore    int     `json:"totalScore"`
	AvatarIcon    *string `json:"avatarIcon"`
	AvatarBgColor *string `json:"avatarBgColor"`
}

// AvatarDescriptor travels JSON-encoded in the identity provider's photo URL field.
type AvatarDescriptor struct {
	AvatarIcon    string `json:"avatarIcon"`
	AvatarBgColor string `json:"avatarBgColor"`
}

type UserSession struct {
	UID           string  `json:"uid"`
	DisplayName   string  `json:"displayName"`
	Email         string  `json:"email"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	AvatarIcon    *string `json:"avatarIcon"`
	AvatarBgColor string  `json:"avatarBgColor"`
	IsSeller      bool    `json:"isSeller"`
	IsAdmin       bool    `json:"isAdmin,omitempty"`
}

// AuthToken is what a successful sign-in hands back to the client.
type AuthToken struct {
	UID          string        `json:"uid"`
	IDToken      string        `json:"idToken"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresIn    time.Duration `json:"-"`
	IsNewUser    bool          `json:"isNewUser,omitempty"`
}
