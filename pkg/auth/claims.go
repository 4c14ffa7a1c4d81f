package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT this API accepts. Tokens are minted by
// the external auth service; this service only verifies them.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
