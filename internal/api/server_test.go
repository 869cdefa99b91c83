package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/wesm/msgreader/internal/config"
)

// testLogger returns a logger that only prints errors.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, serverCfg config.ServerConfig) *Server {
	t.Helper()
	if serverCfg.APIPort == 0 {
		serverCfg.APIPort = 8080
	}
	srv := NewServer(&config.Config{Server: serverCfg}, testLogger())
	t.Cleanup(srv.rateLimiter.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("health status = %q, want 'ok'", resp["status"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{APIKey: "secret-key"})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		// Authorized requests without an upload fail validation, not auth.
		{"no auth", "", "", http.StatusUnauthorized},
		{"wrong key", "Authorization", "wrong-key", http.StatusUnauthorized},
		{"correct key", "Authorization", "secret-key", http.StatusBadRequest},
		{"bearer prefix", "Authorization", "Bearer secret-key", http.StatusBadRequest},
		{"x-api-key header", "X-API-Key", "secret-key", http.StatusBadRequest},
		{"bearer wrong key", "Authorization", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/messages", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()

			srv.Router().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareNoKeyConfigured(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest("POST", "/api/v1/messages", nil)
	w := httptest.NewRecorder()

	srv.Router().ServeHTTP(w, req)

	if w.Code == http.StatusUnauthorized {
		t.Errorf("status = %d, want auth skipped when no API key configured", w.Code)
	}
}

func TestSecurityValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.ServerConfig
		wantError bool
	}{
		{"loopback no key", config.ServerConfig{BindAddr: "127.0.0.1"}, false},
		{"loopback 127.0.0.2 no key", config.ServerConfig{BindAddr: "127.0.0.2"}, false},
		{"ipv6 loopback no key", config.ServerConfig{BindAddr: "::1"}, false},
		{"localhost no key", config.ServerConfig{BindAddr: "localhost"}, false},
		{"empty addr no key", config.ServerConfig{BindAddr: ""}, false},
		{"non-loopback with key", config.ServerConfig{BindAddr: "0.0.0.0", APIKey: "secret"}, false},
		{"non-loopback no key", config.ServerConfig{BindAddr: "0.0.0.0"}, true},
		{"non-loopback ipv6 no key", config.ServerConfig{BindAddr: "::"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateSecure()
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateSecure() error = %v, wantError = %v", err, tt.wantError)
			}
		})
	}
}

func TestStartRefusesInsecureBind(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{BindAddr: "0.0.0.0"})
	if err := srv.Start(); err == nil {
		t.Fatal("Start() succeeded on a public address without an API key")
	}
}

func TestCORSFromConfig(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{
		CORSOrigins: []string{"http://localhost:3000", "http://example.com"},
	})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("expected CORS header for allowed origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req2 := httptest.NewRequest("GET", "/health", nil)
	req2.Header.Set("Origin", "http://evil.com")
	w2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(w2, req2)

	if w2.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("expected no CORS header for disallowed origin, got %q", w2.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	srv := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("expected no CORS header when no origins configured, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
