package auth

import (
	"time"

	"github.com/abduss/goshop/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is the scheme returned with every token bundle.
const TokenType = "Bearer"

// RefreshToken is a persisted single-use refresh credential.
type RefreshToken struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
	Owner     user.User
}

// TokenPair is the bundle returned by register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims is the access token payload: sub, email, role, iat and exp.
type Claims struct {
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the validated identity attached to a request.
type Principal struct {
	Sub       string    `json:"sub"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// UserID parses the subject.
func (p Principal) UserID() (uuid.UUID, error) {
	return uuid.Parse(p.Sub)
}

// Roles returns the principal's non-empty roles.
func (p Principal) Roles() []user.Role {
	return normalizeRoles(p.Role)
}

func normalizeRoles(roles ...user.Role) []user.Role {
	out := make([]user.Role, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LogoutResult confirms a logout.
type LogoutResult struct {
	Message string `json:"message"`
	Revoked int64  `json:"-"`
}
