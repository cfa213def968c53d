package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/krushee/krushee-backend-go/utils"
)

// UserIDKey holds the authenticated user's id in the echo context.
const UserIDKey = "userID"

// OptionalAuth sets the user id when a valid bearer token is present and otherwise
// lets the request through as a guest.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, ok := bearerToken(c); ok {
				if claims, err := utils.ValidateJWT(token, secret); err == nil {
					c.Set(UserIDKey, claims.UserID)
				}
			}
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "Missing authorization header")
			}

			token, ok := bearerToken(c)
			if !ok {
				return unauthorized(c, "Invalid authorization header format")
			}

			claims, err := utils.ValidateJWT(token, secret)
			if err != nil {
				return unauthorized(c, "Invalid or expired token")
			}

			// Add user ID to context
			c.Set(UserIDKey, claims.UserID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id, or "" for a guest.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func bearerToken(c echo.Context) (string, bool) {
	parts := strings.Split(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":      msg,
		"code":       "AUTH_REQUIRED",
		"redirectTo": "/login",
	})
}
