package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func performRequest(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return rec, handler(c)
}

func TestRequestID_Generated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, err := performRequest(RequestID(), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id assigned")
	}
}

func TestRequestID_HonorsCallerSupplied(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "caller-id-1")
	rec, err := performRequest(RequestID(), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "caller-id-1" {
		t.Errorf("request id = %q, want caller-id-1", got)
	}
}

func TestRateLimit_AllowsBurstThenRejects(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	e := echo.New()
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	do := func() (int, http.Header) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := handler(c)
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				return he.Code, rec.Header()
			}
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Code, rec.Header()
	}

	for i := 0; i < 2; i++ {
		if code, _ := do(); code != http.StatusOK {
			t.Fatalf("request %d rejected with %d", i, code)
		}
	}
	code, hdr := do()
	if code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}
	if hdr.Get("Retry-After") == "" {
		t.Error("no Retry-After header on rejection")
	}
}

func TestRateLimit_PerClientAddress(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	e := echo.New()
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	do := func(addr string) error {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		return handler(e.NewContext(req, rec))
	}

	if err := do("10.0.0.1:1"); err != nil {
		t.Fatalf("first client first request: %v", err)
	}
	if err := do("10.0.0.1:1"); err == nil {
		t.Fatal("first client not limited")
	}
	if err := do("10.0.0.2:1"); err != nil {
		t.Errorf("second client throttled by first client's bucket: %v", err)
	}
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, err := performRequest(SecurityHeaders(), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Recovery(zerolog.Nop())(func(echo.Context) error {
		panic("boom")
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("err = %v, want 500 HTTPError", err)
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec, err := performRequest(Logger(zerolog.Nop()), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
