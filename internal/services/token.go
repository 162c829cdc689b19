package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService validates access tokens issued by the auth provider
type TokenService struct {
	jwtSecret string
}

// NewTokenService creates a new token service
func NewTokenService(jwtSecret string) *TokenService {
	return &TokenService{jwtSecret: jwtSecret}
}

// ValidateJWT validates a token and returns the caller. The user id is read
// from "sub", falling back to "user_id", and must be a UUID.
func (s *TokenService) ValidateJWT(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return Identity{}, fmt.Errorf("user id not found in token")
	}
	if !IsUUID(userID) {
		return Identity{}, fmt.Errorf("user id %q is not a uuid", userID)
	}

	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Email: email}, nil
}
