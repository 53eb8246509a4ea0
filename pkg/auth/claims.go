package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload carries the identity minted into an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	JTI    string
}

// AccessTokenClaims is the JWT claim set the API trusts after verification.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}
