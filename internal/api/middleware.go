/**
 * @description
 * This file contains custom middleware for the HTTP router: an HS256 JWT check
 * for operator endpoints and shared-secret signature helpers for the
 * scheduler-facing endpoints.
 *
 * @dependencies
 * - crypto/hmac, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: JWT parsing and validation.
 */
package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AdminAuthMiddleware creates a middleware that validates an HS256 JWT carrying
// an admin role claim. Operator endpoints (balance correction) sit behind it.
// An empty secret rejects every request; tokens signed with an empty key must
// never validate.
func AdminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "Admin authentication is not configured", http.StatusUnauthorized)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			if role, _ := claims["role"].(string); role != "admin" {
				http.Error(w, "Admin role required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validSignature compares a request-supplied shared secret against the
// configured one in constant time.
func validSignature(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(provided), []byte(expected))
}

// verifyQStashSignature validates the Upstash-Signature header QStash sends
// with scheduled calls: a JWT signed with one of the account's signing keys,
// carrying the SHA-256 of the delivered body. Both the current and the next
// key are accepted to cover QStash's key rotation.
func verifyQStashSignature(tokenString string, body []byte, keys ...string) error {
	var lastErr error
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := verifyQStashSignatureWithKey(tokenString, body, key); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no QStash signing keys configured")
	}
	return lastErr
}

func verifyQStashSignatureWithKey(tokenString string, body []byte, key string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid signature token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid signature claims")
	}
	if iss, _ := claims["iss"].(string); iss != "Upstash" {
		return fmt.Errorf("unexpected signature issuer %q", iss)
	}
	if bodyClaim, _ := claims["body"].(string); bodyClaim != "" {
		sum := sha256.Sum256(body)
		expected := base64.URLEncoding.EncodeToString(sum[:])
		if strings.TrimRight(bodyClaim, "=") != strings.TrimRight(expected, "=") {
			return errors.New("request body hash mismatch")
		}
	}
	return nil
}
