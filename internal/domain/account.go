package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. A role never changes after the
// account is created.
type Role string

const (
	RoleUser   Role = "USER"
	RoleDoctor Role = "DOCTOR"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole accepts only the exact upper-case role names.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleDoctor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// UnmarshalJSON rejects unknown roles at decode time.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Gender is optional on an account; the zero value means unset.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ParseGender matches case-insensitively, so "female" and "Female" are both
// accepted from profile forms.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToUpper(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", ErrInvalidGender(s)
	}
}

// Account is a login identity of any role.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	DOB          string    `json:"dob,omitempty"`
	Gender       Gender    `json:"gender,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RefreshToken is the persisted record of an issued refresh token. Only the
// SHA-256 of the token is stored.
type RefreshToken struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TokenHash string    `json:"-"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is returned by login. RefreshToken is empty on register and
// refresh responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Role         Role   `json:"role"`
	UserID       string `json:"user_id"`
}
