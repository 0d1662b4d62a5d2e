// Package middleware provides HTTP middleware for authentication, request
// IDs, and rate limiting.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"docflow/internal/domain"
)

// HS256Validator validates JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates a validator for HS256 tokens.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies a JWT signed with HS256 and returns the subject claim.
func (v *HS256Validator) Validate(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// Auth validates the Bearer token, resolves the subject to an active user,
// and stores the resulting Actor plus the caller origin in the request
// context. Returns 401 when the token is missing or invalid, or when the
// user is unknown or deactivated.
func Auth(validator *HS256Validator, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "missing Bearer token")
				return
			}

			sub, err := validator.Validate(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			user, err := users.GetByName(r.Context(), sub)
			if err != nil {
				writeUnauthorized(w, "unknown user")
				return
			}
			if !user.Active {
				writeUnauthorized(w, "user is deactivated")
				return
			}

			ctx := domain.WithActor(r.Context(), domain.Actor{
				UserID: user.ID,
				Name:   user.Name,
				Role:   user.Role,
			})
			ctx = domain.WithOrigin(ctx, clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    401,
		"message": "unauthorized: " + msg,
	})
}
