package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/mtaabiz/internal/handler"
	"github.com/msomdec/mtaabiz/internal/metrics"
	"github.com/msomdec/mtaabiz/internal/repository/sqlite"
	"github.com/msomdec/mtaabiz/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

func newTestDeps(t *testing.T) handler.Dependencies {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New()
	gate := service.NewEntitlementGate(service.FreeInvoiceLimit, m)
	profiles := service.NewProfileService(db, gate)
	templates := service.NewTemplateService(db.Templates())
	if _, err := templates.SeedShared(context.Background()); err != nil {
		t.Fatalf("SeedShared: %v", err)
	}
	return handler.Dependencies{
		Auth:               service.NewAuthService(db, db.Tokens(), profiles, testJWTSecret, 4, time.Hour),
		Profiles:           profiles,
		Invoices:           service.NewInvoiceService(db, gate),
		Templates:          templates,
		Metrics:            m,
		StatusPollInterval: 10 * time.Millisecond,
	}
}

func registerUser(t *testing.T, auth *service.AuthService, username string) string {
	t.Helper()
	_, token, err := auth.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("Register %s: %v", username, err)
	}
	return token
}

func TestRequireAuth_ValidToken(t *testing.T) {
	deps := newTestDeps(t)
	token := registerUser(t, deps.Auth, "valid")

	for _, scheme := range []string{"Bearer", "Token", "bearer"} {
		t.Run(scheme, func(t *testing.T) {
			var gotUser string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if user := handler.UserFromContext(r.Context()); user != nil {
					gotUser = user.Username
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", scheme+" "+token)
			w := httptest.NewRecorder()

			handler.RequireAuth(deps.Auth, inner).ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if gotUser != "valid" {
				t.Fatalf("expected user 'valid', got %q", gotUser)
			}
		})
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	deps := newTestDeps(t)
	token := registerUser(t, deps.Auth, "tamper")

	tests := map[string]string{
		"missing header":   "",
		"unknown scheme":   "Basic " + token,
		"no token":         "Bearer",
		"invalid token":    "Bearer invalid.jwt.token",
		"tampered token":   "Bearer " + token[:len(token)-1] + "X",
		"token not bearer": token,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("inner handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			handler.RequireAuth(deps.Auth, inner).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestRequestLogger_SetsRequestIDAndLogsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	w := httptest.NewRecorder()
	handler.RequestLogger(logger, nil, mux).ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", w.Code)
	}
	id := w.Header().Get(handler.RequestIDHeader)
	if id == "" {
		t.Fatal("expected a request id header")
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["request_id"] != id {
		t.Fatalf("log request_id = %v, header = %s", rec["request_id"], id)
	}
	if rec["route"] != "GET /things/{id}" {
		t.Fatalf("expected route pattern, got %v", rec["route"])
	}
	if rec["status"] != float64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %v", rec["status"])
	}
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	const incoming = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(handler.RequestIDHeader, incoming)
	w := httptest.NewRecorder()
	handler.RequestLogger(logger, nil, http.NotFoundHandler()).ServeHTTP(w, req)

	if got := w.Header().Get(handler.RequestIDHeader); got != incoming {
		t.Fatalf("expected %s, got %s", incoming, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(handler.RequestIDHeader, "not a uuid\r\nX-Evil: 1")
	w = httptest.NewRecorder()
	handler.RequestLogger(logger, nil, http.NotFoundHandler()).ServeHTTP(w, req)

	if got := w.Header().Get(handler.RequestIDHeader); strings.Contains(got, "not a uuid") {
		t.Fatalf("expected invalid id to be replaced, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.SecurityHeaders(http.NotFoundHandler()).ServeHTTP(w, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	limiter := service.NewKeyedLimiter(0, 2)
	defer limiter.Close()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := handler.RateLimit(limiter, ok)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the same IP, got %d", code)
	}
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("expected 200 for another IP, got %d", code)
	}
}
