package librarian

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured access-token claims for downstream
// authorization checks.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// AccessClaims is the claim set embedded in access tokens: the user id,
// email, and role, signed with the access secret.
type AccessClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"userId,omitempty"`
	UserEmail string `json:"email,omitempty"`
	UserRole  string `json:"role,omitempty"`
}

var _ AuthClaims = (*AccessClaims)(nil)

// Subject returns the subject claim
func (c *AccessClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *AccessClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *AccessClaims) Email() string {
	return c.UserEmail
}

// Role returns the role claim
func (c *AccessClaims) Role() string {
	return c.UserRole
}

// HasRole checks if the token carries a specific role
func (c *AccessClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time of the claims
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// IssuedAt returns the issue time of the claims
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// RefreshClaims is the claim set embedded in refresh tokens. It carries
// only the user id and is signed with the refresh secret.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UID string `json:"userId,omitempty"`
}

// UserID returns the user ID
func (c *RefreshClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}
