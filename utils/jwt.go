package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateJWT signs an HS256 token carrying the user id and username.
func GenerateJWT(userID uint, username, secret string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   userID,
		"username": username,
		"exp":      time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseJWT validates tokenString and returns the user id it was issued for.
func ParseJWT(tokenString, secret string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	switch id := claims["userId"].(type) {
	case float64: // JSON numbers decode as float64
		if id <= 0 {
			return 0, ErrInvalidToken
		}
		return uint(id), nil
	default:
		return 0, fmt.Errorf("%w: userId claim missing", ErrInvalidToken)
	}
}
