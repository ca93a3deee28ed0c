// Package auth verifies optional identity tokens. Connections without
// a token get a generated guest name, so auth failure never blocks
// joining a board.
package auth

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type customClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 identity tokens.
type JWTManager struct {
	secretKey []byte
	lifetime  time.Duration
}

func NewJWTManager(secretKey string, lifetime time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		lifetime:  lifetime,
	}
}

// Generate signs a token carrying the username.
func (m *JWTManager) Generate(username string) (string, error) {
	claims := customClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify returns the username carried by a valid token.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &customClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims, ok := token.Claims.(*customClaims); ok && token.Valid {
		return claims.Username, nil
	}
	return "", ErrInvalidToken
}

// GuestName makes up a throwaway display name.
func GuestName() string {
	return fmt.Sprintf("guest-%04d", rand.Intn(10000))
}
