package middleware

import "github.com/labstack/echo/v4"

// ContextUserID is the echo context key SessionAuth stores the subject under.
const ContextUserID = "user_id"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok {
		return s
	}
	return ""
}

// rateSubject is the user component of rate-limit keys.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
