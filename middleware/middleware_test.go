package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krushee/krushee-backend-go/utils"
)

const secret = "test-secret"

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	return c.String(http.StatusOK, UserID(c))
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, RequireAuth(secret))

	token, err := utils.GenerateJWT("u42", secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "u42"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized, ""},
		{"bad token", "Bearer garbage", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"redirectTo":"/login"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, OptionalAuth(secret))

	token, err := utils.GenerateJWT("u7", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, "u7", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer expired-or-bad")
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSessionID(t *testing.T) {
	e := echo.New()
	e.Use(SessionID())
	e.GET("/sid", func(c echo.Context) error {
		return c.String(http.StatusOK, GetSessionID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/sid", nil)
	req.Header.Set(HeaderSessionID, "shopper-session-1")
	rec := serve(e, req)
	assert.Equal(t, "shopper-session-1", rec.Body.String())
	assert.Equal(t, "shopper-session-1", rec.Header().Get(HeaderSessionID))

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/sid", nil))
	issued := rec.Body.String()
	assert.Len(t, issued, 36)
	assert.Equal(t, issued, rec.Header().Get(HeaderSessionID))

	req = httptest.NewRequest(http.MethodGet, "/sid", nil)
	req.Header.Set(HeaderSessionID, "bad id!")
	assert.NotEqual(t, "bad id!", serve(e, req).Body.String())
}
