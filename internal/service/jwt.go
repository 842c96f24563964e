package service

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoJWTSecret  = errors.New("jwt secret is not set")
)

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func InitJWT(secret string) error {
	if secret == "" {
		return ErrNoJWTSecret
	}
	jwtMu.Lock()
	jwtSecret = []byte(secret)
	jwtMu.Unlock()
	return nil
}

func secret() ([]byte, error) {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	if len(jwtSecret) == 0 {
		return nil, ErrNoJWTSecret
	}
	return jwtSecret, nil
}

// GenerateJWT signs a session token valid for 24h
func GenerateJWT(sessionID string) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseJWT validates the token and returns its session id
func ParseJWT(tokenString string) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
