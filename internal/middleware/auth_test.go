package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"caretrack/internal/config"
)

const testSecret = "test-secret-key-for-testing-only"
const testIssuer = "caretrack-test"

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func baseClaims(roles ...string) *Claims {
	workerID := uint(7)
	return &Claims{
		UserID:   42,
		Name:     "Test User",
		Roles:    roles,
		WorkerID: &workerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func newAuthMiddleware() *AuthMiddleware {
	return NewAuthMiddleware(&config.JWTConfig{Secret: testSecret, Issuer: testIssuer})
}

func TestAuthenticatePopulatesContext(t *testing.T) {
	mw := newAuthMiddleware()

	var gotUserID uint
	var gotName string
	var gotWorkerID uint
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r)
		gotName, _ = GetUserName(r)
		gotWorkerID, _ = GetWorkerID(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/workers", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, baseClaims("admin")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != 42 || gotName != "Test User" || gotWorkerID != 7 {
		t.Errorf("Context not populated: user=%d name=%q worker=%d", gotUserID, gotName, gotWorkerID)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	mw := newAuthMiddleware()
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing header", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") }},
		{"wrong issuer", func(r *http.Request) {
			claims := baseClaims("admin")
			claims.Issuer = "someone-else"
			r.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		}},
		{"expired token", func(r *http.Request) {
			claims := baseClaims("admin")
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			r.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/workers", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	mw := newAuthMiddleware()

	protected := mw.Authenticate(mw.RequireAnyRole("admin", "coordinator")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	))

	req := httptest.NewRequest("GET", "/api/v1/admin/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, baseClaims("coordinator")))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for coordinator, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/admin/audit-logs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, baseClaims("assessor")))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for assessor, got %d", rec.Code)
	}
}

func TestGetIPHeaderPrecedence(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := GetIP(req); got != "10.0.0.1:1234" {
		t.Errorf("Expected RemoteAddr fallback, got %s", got)
	}

	req.Header.Set("X-Real-IP", "203.0.113.5")
	if got := GetIP(req); got != "203.0.113.5" {
		t.Errorf("Expected X-Real-IP, got %s", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := GetIP(req); got != "198.51.100.7" {
		t.Errorf("Expected X-Forwarded-For to win, got %s", got)
	}
}
