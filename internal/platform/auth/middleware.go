// Package auth verifies bearer tokens issued by the external identity
// provider and exposes the caller's identity to handlers. Login and token
// issuance live in the identity provider, not here.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims is the token payload. Subject is the record owner ID. Providers
// send either a roles array or a single role string; both are honoured.
type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// RoleSet merges Role and Roles, lowercased and without duplicates.
func (c *Claims) RoleSet() []string {
	all := append([]string{c.Role}, c.Roles...)
	out := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, r := range all {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey enables HS256 verification with a key shared with the
	// identity provider. When empty, RS256 keys are taken from JWKSURL.
	SigningKey []byte
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	var keyFunc jwt.Keyfunc
	methods := []string{"HS256"}
	if len(cfg.SigningKey) > 0 {
		keyFunc = func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	} else {
		keyFunc = NewJWKSCache(cfg.JWKSURL, defaultJWKSCacheTTL).keyFunc
		methods = []string{"RS256"}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			setIdentity(c, Identity{
				UserID: claims.Subject,
				Name:   claims.Name,
				Email:  claims.Email,
				Roles:  claims.RoleSet(),
			})
			return next(c)
		}
	}
}

// DevUserID owns every record created while DevAuthMiddleware is active.
const DevUserID = "dev-user"

// DevAuthMiddleware lets unauthenticated requests through as an admin
// development user. Never enable outside ENV=development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setIdentity(c, Identity{
				UserID: DevUserID,
				Name:   "Development User",
				Roles:  []string{"admin"},
			})
			return next(c)
		}
	}
}

func setIdentity(c echo.Context, id Identity) {
	ctx := context.WithValue(c.Request().Context(), identityKey, id)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("user_id", id.UserID)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func RolesFromContext(ctx context.Context) []string {
	id, _ := IdentityFromContext(ctx)
	return id.Roles
}
