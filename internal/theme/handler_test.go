package theme

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestMux(t *testing.T) (*http.ServeMux, fixture) {
	t.Helper()
	f := newFixture("", Light)
	mux := http.NewServeMux()
	NewHandler(f.resolver, zap.NewNop()).RegisterRoutes(mux)
	return mux, f
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, StateResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp StateResponse
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return w, resp
}

func TestHandler_GetInitial(t *testing.T) {
	mux, _ := newTestMux(t)
	w, resp := doJSON(t, mux, "GET", "/api/v1/theme", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Theme != "" || resp.Marker != "" || resp.System != Light {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandler_SetAndToggle(t *testing.T) {
	mux, f := newTestMux(t)

	_, resp := doJSON(t, mux, "PUT", "/api/v1/theme", `{"theme":"dark"}`)
	if resp.Theme != Dark || resp.Marker != "theme-dark" {
		t.Errorf("after set = %+v", resp)
	}

	_, resp = doJSON(t, mux, "POST", "/api/v1/theme/toggle", "")
	if resp.Theme != Light {
		t.Errorf("after toggle = %+v", resp)
	}
	if got, _, _ := f.store.Load(t.Context()); got != Light {
		t.Errorf("persisted = %q, want light", got)
	}
}

func TestHandler_SetRejectsBadInput(t *testing.T) {
	mux, _ := newTestMux(t)
	for _, body := range []string{`{"theme":"auto"}`, `not json`, `{}`} {
		w, _ := doJSON(t, mux, "PUT", "/api/v1/theme", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandler_SystemPreferenceDrivesFollowingResolver(t *testing.T) {
	mux, f := newTestMux(t)
	f.resolver.FollowSystem(t.Context())

	_, resp := doJSON(t, mux, "PUT", "/api/v1/theme/system", `{"theme":"dark"}`)
	if resp.System != Dark || resp.Theme != Dark || !resp.Following {
		t.Errorf("resp = %+v, want dark following", resp)
	}
}
