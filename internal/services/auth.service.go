package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService mints and validates the HS256 session tokens handed out on
// successful login
type TokenService struct {
	secretKey   string
	tokenExpiry time.Duration
}

// SessionClaims is the JWT claims structure for an operator session
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenService builds a token service. An empty secret gets a random
// one-off key; tokens then won't survive a restart, which is acceptable for
// a ground station that re-authenticates on reconnect.
func NewTokenService(secretKey string, tokenExpiry time.Duration) *TokenService {
	if secretKey == "" {
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err == nil {
			secretKey = hex.EncodeToString(randomBytes)
			log.Printf("[AUTH] no token secret configured, generated ephemeral key")
		} else {
			secretKey = fmt.Sprintf("groundstation-%d-fallback", time.Now().UnixNano())
			log.Printf("[AUTH] random generation failed, using fallback key")
		}
	}
	if tokenExpiry == 0 {
		tokenExpiry = 12 * time.Hour
	}
	return &TokenService{secretKey: secretKey, tokenExpiry: tokenExpiry}
}

// Mint creates a session token for an authenticated user
func (t *TokenService) Mint(userID, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "groundstation",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.secretKey))
}

// Validate verifies and parses a session token
func (t *TokenService) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
