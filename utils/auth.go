package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// AdminTokenTTL is how long an issued admin token stays valid.
const AdminTokenTTL = 12 * time.Hour

// GenerateAdminToken creates an HS256 token carrying the admin's user id.
func GenerateAdminToken(adminID uint, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["admin_id"] = adminID
	claims["role"] = "admin"
	claims["exp"] = time.Now().Add(ttl).Unix()

	return token.SignedString([]byte(secret))
}

// ParseAdminToken validates tokenString and returns the admin id it carries.
func ParseAdminToken(tokenString, secret string) (uint, error) {
	if secret == "" {
		return 0, errors.New("jwt secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token")
	}
	adminID, ok := claims["admin_id"].(float64)
	if !ok || adminID <= 0 {
		return 0, errors.New("invalid admin ID in token")
	}
	return uint(adminID), nil
}
