package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "launchpad-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := Subject(r.Context())
		_, _ = w.Write([]byte(subject))
	})
}

func TestAuthenticatorAcceptsValidToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "launchpad", Audience: "rpc"}, nil)
	token := signToken(t, jwt.MapClaims{
		"sub": "0x00000000000000000000000000000000000000aa",
		"iss": "launchpad",
		"aud": []interface{}{"rpc"},
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	auth.Middleware()(subjectEcho()).ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", res.Body.String())
}

func TestAuthenticatorRejects(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "launchpad"}, nil)
	cases := map[string]string{
		"missing":    "",
		"malformed":  "Bearer not-a-token",
		"wrong-iss":  "Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "iss": "other"}),
		"no-subject": "Bearer " + signToken(t, jwt.MapClaims{"iss": "launchpad"}),
		"expired":    "Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "iss": "launchpad", "exp": time.Now().Add(-time.Hour).Unix()}),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		res := httptest.NewRecorder()
		auth.Middleware()(subjectEcho()).ServeHTTP(res, req)
		require.Equal(t, http.StatusUnauthorized, res.Code, name)
	}
}

func TestAuthenticatorOptionalPathsAndDisabled(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret, OptionalPaths: []string{"/healthz"}, AllowAnonymous: true}, nil)
	res := httptest.NewRecorder()
	auth.Middleware()(subjectEcho()).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)

	disabled := NewAuthenticator(AuthConfig{}, nil)
	require.False(t, disabled.Enabled())
	res = httptest.NewRecorder()
	disabled.Middleware()(subjectEcho()).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/rpc", nil))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, res.Header().Get(HeaderRequestID))

	const inbound = "0b9f4b2e-6a0c-4b7e-9d9b-8f5b3e9a1c11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, inbound)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, inbound, seen)

	req.Header.Set(HeaderRequestID, "not-a-uuid")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotEqual(t, "not-a-uuid", seen)
}
