package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/jobprep/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFMiddleware_SafeMethod_IssuesToken(t *testing.T) {
	handler := NewCSRFMiddleware(CSRFConfig{CookieSecure: true})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/job-infos", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	c := findCookie(w.Result().Cookies(), csrfCookieName)
	if c == nil {
		t.Fatal("expected csrf cookie to be issued")
	}
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(c.Value))
	}
	if c.HttpOnly {
		t.Error("csrf cookie must be readable from JavaScript")
	}
	if !c.Secure {
		t.Error("csrf cookie should follow CookieSecure")
	}
}

func TestCSRFMiddleware_SafeMethod_KeepsExistingToken(t *testing.T) {
	handler := NewCSRFMiddleware(CSRFConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/job-infos", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if c := findCookie(w.Result().Cookies(), csrfCookieName); c != nil {
		t.Errorf("token should not be re-issued, got %q", c.Value)
	}
}

func TestCSRFMiddleware_UnsafeMethods(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		cookie     string
		header     string
		wantStatus int
	}{
		{name: "一致", method: http.MethodPost, cookie: "tok", header: "tok", wantStatus: http.StatusOK},
		{name: "PATCHで一致", method: http.MethodPatch, cookie: "tok", header: "tok", wantStatus: http.StatusOK},
		{name: "DELETEで一致", method: http.MethodDelete, cookie: "tok", header: "tok", wantStatus: http.StatusOK},
		{name: "Cookieなし", method: http.MethodPost, header: "tok", wantStatus: http.StatusForbidden},
		{name: "ヘッダーなし", method: http.MethodPost, cookie: "tok", wantStatus: http.StatusForbidden},
		{name: "不一致", method: http.MethodPost, cookie: "tok", header: "other", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCSRFMiddleware(CSRFConfig{})(okHandler())

			req := httptest.NewRequest(tt.method, "/api/job-infos", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if body := decodeErrorBody(t, w); body.Code != model.ErrCodeCSRFInvalid {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCSRFInvalid)
				}
			}
		})
	}
}

func TestCSRFTokenHandler(t *testing.T) {
	t.Run("既存トークンを返す", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
		w := httptest.NewRecorder()
		NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, req)

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["token"] != "existing" {
			t.Errorf("token = %q, want %q", body["token"], "existing")
		}
	})

	t.Run("なければ発行する", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		w := httptest.NewRecorder()
		NewCSRFTokenHandler(CSRFConfig{}).ServeHTTP(w, req)

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		c := findCookie(w.Result().Cookies(), csrfCookieName)
		if c == nil {
			t.Fatal("expected csrf cookie")
		}
		if body["token"] != c.Value {
			t.Errorf("body token %q does not match cookie %q", body["token"], c.Value)
		}
	})
}
