package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/electrogest/electrogest-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Login       string
	DisplayName string
	AccessTier  enums.AccessTier
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Login       string           `json:"login"`
	DisplayName string           `json:"display_name"`
	AccessTier  enums.AccessTier `json:"access_tier"`
	jwt.RegisteredClaims
}
