// Package auth guards mutating endpoints with a static bearer token.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrMissingToken is returned by Validate when auth is enabled without a
// token.
var ErrMissingToken = errors.New("auth token is required when auth is enabled")

// Config holds authentication configuration.
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// Validate reports a misconfiguration.
func (c Config) Validate() error {
	if c.Enabled && c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// exemptPaths are always public regardless of auth configuration.
var exemptPaths = map[string]bool{
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/api/v1/propagate":        true,
	"/api/v1/keplerian":        true,
	"/api/v1/catalog/metadata": true,
}

// exemptPrefixes are path prefixes that are always public.
var exemptPrefixes = []string{
	"/api/v1/catalog/",
}

// protectedPaths win over exemptPrefixes.
var protectedPaths = map[string]bool{
	"/api/v1/catalog/fetch": true,
}

// isExempt returns true if the path is exempt from auth.
func isExempt(path string) bool {
	if protectedPaths[path] {
		return false
	}
	if exemptPaths[path] {
		return true
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware returns an HTTP middleware that enforces Bearer token auth
// on non-exempt paths when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")

			if !found || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
