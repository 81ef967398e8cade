package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueAccessToken signs an HS256 bearer token accepted by the API's auth
// middleware. The subject becomes the acting user on every write.
func IssueAccessToken(userID, secret, issuer string, ttl time.Duration, now time.Time) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	if ttl <= 0 {
		return "", errors.New("token lifetime must be positive")
	}

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
