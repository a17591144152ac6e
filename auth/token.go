package auth

import (
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "direct-chat"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens with a shared secret.
// Tokens are issued by the account service, this repo only signs them for tooling and tests.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT for a specific party.
func (m *TokenManager) GenerateToken(identity domain.PartyID, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: string(identity),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateToken parses the token and returns the party it was issued to.
// Any failure is reported as ErrInvalidToken.
func (m *TokenManager) ValidateToken(tokenString string) (domain.PartyID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrInvalidToken
	}
	return domain.PartyID(claims.UserID), nil
}

// BearerToken strips the "Bearer " scheme of an authorization header.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
