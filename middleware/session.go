package middleware

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderSessionID carries the shopper session across requests.
	HeaderSessionID = "X-Session-ID"
	SessionIDKey    = "sessionID"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// SessionID reads the shopper session id from the request, issuing a new one when it
// is missing or malformed. The id is echoed back in the response header.
func SessionID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderSessionID)
			if id == "" {
				id = c.QueryParam("session")
			}
			if !sessionIDPattern.MatchString(id) {
				id = uuid.NewString()
			}
			c.Set(SessionIDKey, id)
			c.Response().Header().Set(HeaderSessionID, id)
			return next(c)
		}
	}
}

func GetSessionID(c echo.Context) string {
	id, _ := c.Get(SessionIDKey).(string)
	return id
}
