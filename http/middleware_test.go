package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	fileboxhttp "github.com/sagarc03/filebox/http"
	"github.com/sagarc03/filebox/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "s3cret"

func newVerifier(t *testing.T) *keybackend.StaticKey {
	t.Helper()
	verifier, err := keybackend.NewStaticKey(testKey)
	require.NoError(t, err)
	return verifier
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestAPIKeyMiddleware_ValidKey(t *testing.T) {
	wrapped := fileboxhttp.APIKeyMiddleware(newVerifier(t))(okHandler())

	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set(fileboxhttp.APIKeyHeader, testKey)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAPIKeyMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		set    bool
	}{
		{"missing header", "", false},
		{"empty header", "", true},
		{"wrong key", "wrong", true},
		{"key prefix", "s3c", true},
		{"key with suffix", testKey + "x", true},
		{"different case", "S3CRET", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			})
			wrapped := fileboxhttp.APIKeyMiddleware(newVerifier(t))(handler)

			req := httptest.NewRequest("GET", "/files", nil)
			if tt.set {
				req.Header.Set(fileboxhttp.APIKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
			assert.Contains(t, rec.Body.String(), "Invalid API key")
		})
	}
}

func TestAPIKeyMiddleware_HeaderNameIsCaseInsensitive(t *testing.T) {
	wrapped := fileboxhttp.APIKeyMiddleware(newVerifier(t))(okHandler())

	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("x-api-key", testKey)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddleware_NilVerifierRejects(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
	wrapped := fileboxhttp.APIKeyMiddleware(nil)(handler)

	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set(fileboxhttp.APIKeyHeader, "anything")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	wrapped := fileboxhttp.RateLimit(fileboxhttp.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             2,
	})(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_PerClient(t *testing.T) {
	wrapped := fileboxhttp.RateLimit(fileboxhttp.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})(okHandler())

	first := httptest.NewRequest("GET", "/health", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Same host, different port: same client.
	again := httptest.NewRequest("GET", "/health", nil)
	again.RemoteAddr = "10.0.0.1:5678"
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, again)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"rate_limited"`)

	other := httptest.NewRequest("GET", "/health", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_IgnoresForwardedForUnlessTrusted(t *testing.T) {
	wrapped := fileboxhttp.RateLimit(fileboxhttp.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})(okHandler())

	for i, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		if i == 0 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestRateLimit_TrustProxyUsesForwardedFor(t *testing.T) {
	wrapped := fileboxhttp.RateLimit(fileboxhttp.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		TrustProxy:        true,
	})(okHandler())

	for _, xff := range []string{"1.1.1.1, 10.0.0.1", "2.2.2.2"} {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, xff)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	wrapped := fileboxhttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/x", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
