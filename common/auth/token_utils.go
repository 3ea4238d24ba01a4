package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var ErrSecretNotConfigured = errors.New("JWT secret not configured")

// TokenValidator verifies HMAC-signed access tokens.
type TokenValidator struct {
	secretKey []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &TokenValidator{}
	}
	return &TokenValidator{secretKey: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (v *TokenValidator) Enabled() bool {
	return v != nil && v.secretKey != nil
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func (v *TokenValidator) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if !v.Enabled() {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}
