package security

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/diafit/diafit/internal/platform/auth"
	"github.com/diafit/diafit/internal/platform/vault"
)

func newCtx(e *echo.Echo, path string, id *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Status(t *testing.T) {
	h := NewHandler(DefaultStatus("HS256"))
	c, rec := newCtx(echo.New(), "/api/v1/security/status", nil)

	if err := h.Status(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EncryptionAlgorithm != "AES-256-CBC" || got.TokenVerification != "HS256" {
		t.Errorf("unexpected status %+v", got)
	}
	if len(got.ProtectedRoutes) == 0 || len(got.PublicRoutes) == 0 {
		t.Error("expected route lists")
	}
}

func TestHandler_Me(t *testing.T) {
	h := NewHandler(DefaultStatus("HS256"))
	id := auth.Identity{UserID: "u1", Email: "u1@example.test", Roles: []string{"patient"}}
	c, rec := newCtx(echo.New(), "/api/v1/security/me", &id)

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["user_id"] != "u1" || got["email"] != "u1@example.test" || got["token_valid"] != true {
		t.Errorf("unexpected body %v", got)
	}
}

func TestHandler_Audit(t *testing.T) {
	v, err := vault.New("audit-passphrase")
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}
	h := NewHandler(DefaultStatus("HS256"),
		Check{Name: "vault round trip", Run: func(context.Context) error { return v.SelfTest() }},
		Check{Name: "database", Run: func(context.Context) error { return errors.New("connection refused") }},
	)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	c, rec := newCtx(echo.New(), "/api/v1/security/audit", &auth.Identity{UserID: "ops", Roles: []string{"admin"}})
	if err := h.Audit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got struct {
		AuditedAt time.Time `json:"audited_at"`
		Passed    bool      `json:"passed"`
		Checks    []Result  `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Passed {
		t.Error("expected overall failure")
	}
	if len(got.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(got.Checks))
	}
	if got.Checks[0].Status != StatusPass {
		t.Errorf("expected vault check to pass, got %+v", got.Checks[0])
	}
	if got.Checks[1].Status != StatusFail || got.Checks[1].Detail != "connection refused" {
		t.Errorf("unexpected database result %+v", got.Checks[1])
	}
	if !got.AuditedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", got.AuditedAt)
	}
}

func TestRegisterRoutes_AuditRequiresAdmin(t *testing.T) {
	withRoles := func(roles ...string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if len(roles) > 0 {
					ctx := auth.WithIdentity(c.Request().Context(), auth.Identity{UserID: "u1", Roles: roles})
					c.SetRequest(c.Request().WithContext(ctx))
				}
				return next(c)
			}
		}
	}

	tests := []struct {
		name   string
		roles  []string
		path   string
		status int
	}{
		{"status is public", nil, "/api/v1/security/status", http.StatusOK},
		{"me needs a user", nil, "/api/v1/security/me", http.StatusUnauthorized},
		{"me as patient", []string{"patient"}, "/api/v1/security/me", http.StatusOK},
		{"audit as patient", []string{"patient"}, "/api/v1/security/audit", http.StatusForbidden},
		{"audit as admin", []string{"admin"}, "/api/v1/security/audit", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			NewHandler(DefaultStatus("HS256")).RegisterRoutes(e.Group("/api/v1"), e.Group("/api/v1", withRoles(tt.roles...)))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
