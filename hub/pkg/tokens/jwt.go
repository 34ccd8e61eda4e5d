// Package tokens issues and validates the hub's JWT access tokens.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by a hub access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generator signs and validates access tokens with an HMAC secret.
type Generator struct {
	secret []byte
	ttl    time.Duration
}

// NewGenerator creates a Generator. ttl <= 0 defaults to 15 minutes.
func NewGenerator(secret string, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Generator{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// GenerateAccessToken issues a signed HS256 token for the user.
func (g *Generator) GenerateAccessToken(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "parley-hub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

// ValidateAccessToken parses and verifies a token, returning its claims.
func (g *Generator) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
