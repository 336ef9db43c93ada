package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie set by the login endpoint.
const SessionCookieName = "session"

// TokenVerifier is the part of the Firebase auth client used to identify callers.
type TokenVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// RequireAuth returns a middleware that identifies the caller from a Firebase
// session cookie or, failing that, a Bearer ID token.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Check if Firebase is initialized
			if verifier == nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error": "authentication not configured",
				})
			}

			ctx := c.Request().Context()

			var token *auth.Token
			if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				token, err = verifier.VerifySessionCookie(ctx, cookie.Value)
				if err != nil {
					// Invalid session, clear cookie
					c.SetCookie(expiredSessionCookie())
					token = nil
				}
			}

			if token == nil {
				authHeader := c.Request().Header.Get("Authorization")
				idToken := strings.TrimPrefix(authHeader, "Bearer ")
				if authHeader != "" && idToken != authHeader {
					t, err := verifier.VerifyIDToken(ctx, idToken)
					if err == nil {
						token = t
					}
				}
			}

			if token == nil || token.UID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}

			// Set user info in context for downstream handlers
			c.Set("userUID", token.UID)
			if email, ok := token.Claims["email"].(string); ok {
				c.Set("userEmail", email)
			}
			if name, ok := token.Claims["name"].(string); ok {
				c.Set("userName", name)
			}

			return next(c)
		}
	}
}

func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
}
