package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Claims struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

func GenerateJWTToken(user *models.User, cfg *config.Config) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, *AppError) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", NewAuthenticationError("Missing authorization token")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", NewAuthenticationError("Malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

// ParseToken validates the signature and expiry of a token and returns its claims.
func ParseToken(tokenString string, cfg *config.Config) (*Claims, *AppError) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthenticationError("Token expired")
		}
		return nil, NewAuthenticationError("Invalid token")
	}

	if !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, NewAuthenticationError("Invalid token claims")
	}
	return claims, nil
}
