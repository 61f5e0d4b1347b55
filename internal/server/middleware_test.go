package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		keep     bool
		wantUUID bool
	}{
		{"none", "", false, true},
		{"well formed", "edge-7f3a", true, false},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false, true},
		{"control characters", "bad\nid", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/api/v1/theme", http.NoBody)
			if tt.inbound != "" {
				req.Header.Set("X-Request-ID", tt.inbound)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if got != seen {
				t.Errorf("header %q and context %q differ", got, seen)
			}
			if tt.keep && got != tt.inbound {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.inbound)
			}
			if _, err := uuid.Parse(got); tt.wantUUID && err != nil {
				t.Errorf("X-Request-ID = %q, want a UUID", got)
			}
		})
	}
}

func TestLoggingMiddleware_LevelsAndSkip(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mux := http.NewServeMux()
	mux.Handle("/ok", statusHandler(http.StatusOK))
	mux.Handle("/missing", statusHandler(http.StatusNotFound))
	mux.Handle("/broken", statusHandler(http.StatusBadGateway))
	mux.Handle("/healthz", statusHandler(http.StatusOK))
	handler := LoggingMiddleware(zap.New(core), []string{"/healthz"})(mux)

	for _, p := range []string{"/ok", "/missing", "/broken", "/healthz"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", p, http.NoBody))
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 3 {
		t.Fatalf("logged %d requests, want 3 (healthz skipped)", len(entries))
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("%v logged at %s, want %s", e.ContextMap()["path"], e.Level, want[i])
		}
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := SecurityHeadersMiddleware(statusHandler(http.StatusOK))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))
	for header, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "SAMEORIGIN",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": contentSecurityPolicy,
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/swagger/index.html", http.NoBody))
	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("swagger CSP = %q, want none", got)
	}
}

func TestVersionHeaderMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	VersionHeaderMiddleware(statusHandler(http.StatusOK)).ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))

	if w.Header().Get("X-Labportal-Version") == "" {
		t.Error("expected X-Labportal-Version header")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/presence", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q", ct)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic was not logged")
	}
}

func TestRecoveryMiddleware_ReraisesAbort(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(1, 1, []string{"/healthz"})(statusHandler(http.StatusOK))

	do := func(path, remote string) int {
		req := httptest.NewRequest("GET", path, http.NoBody)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if got := do("/api/v1/theme", "10.0.0.1:9999"); got != http.StatusOK {
		t.Fatalf("first request = %d, want 200", got)
	}
	if got := do("/api/v1/theme", "10.0.0.1:9999"); got != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", got)
	}
	if got := do("/api/v1/theme", "10.0.0.2:9999"); got != http.StatusOK {
		t.Errorf("other client = %d, want 200", got)
	}
	for i := range 5 {
		if got := do("/healthz", "10.0.0.1:9999"); got != http.StatusOK {
			t.Fatalf("skipped path request %d = %d, want 200", i, got)
		}
	}
}

func TestLimiterSet_ForgetsIdleClients(t *testing.T) {
	s := newLimiterSet(rate.Limit(1), 1, time.Minute)
	start := time.Now()

	s.allow("10.0.0.1", start)
	s.allow("10.0.0.2", start.Add(30*time.Second))
	if len(s.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(s.entries))
	}

	s.allow("10.0.0.3", start.Add(70*time.Second))
	if _, ok := s.entries["10.0.0.1"]; ok {
		t.Error("idle client should have been swept")
	}
	if len(s.entries) != 2 {
		t.Errorf("entries = %d, want 2", len(s.entries))
	}
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(statusHandler(http.StatusOK), mark("outer"), mark("inner")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"peer", "192.168.1.100:12345", "", "192.168.1.100"},
		{"forwarded", "127.0.0.1:12345", "203.0.113.50, 70.41.3.18", "203.0.113.50"},
		{"empty first hop", "127.0.0.1:12345", " , 70.41.3.18", "127.0.0.1"},
		{"no port", "unix", "", "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusNotFound)
	_, _ = sw.Write([]byte("hello"))

	if sw.status != http.StatusCreated {
		t.Errorf("status = %d, want 201 (first call wins)", sw.status)
	}
	if sw.bytes != 5 {
		t.Errorf("bytes = %d, want 5", sw.bytes)
	}
	if sw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}

func TestMetricPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/ha/api/states/input_select.theme", "/ha/*"},
		{"/portal/ping.html", "/portal/*"},
		{"/static/portal.js", "/static/*"},
		{"/swagger/index.html", "/swagger/*"},
		{"/api/v1/theme", "/api/v1/theme"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := metricPath(tt.path); got != tt.want {
			t.Errorf("metricPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
