package types

import "github.com/golang-jwt/jwt/v5"

// TokenPair holds an access token and the refresh token issued with it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AccessClaims are the claims embedded in an access token.
type AccessClaims struct {
	AccountID   string   `json:"account_id"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	IsAdmin     bool     `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in a refresh token. TokenType is
// always "refresh" so an access token can never be replayed as one.
type RefreshClaims struct {
	AccountID string `json:"account_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// RefreshTokenType is the required value of RefreshClaims.TokenType.
const RefreshTokenType = "refresh"
