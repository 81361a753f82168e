package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
)

// RevocationChecker reports whether a token id was revoked by sign-out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const sessionContextKey = "session"

// Middleware resolves the bearer token into a Session. Requests without a valid token are
// rejected with an UnauthorizedError handled by the server error handler.
func Middleware(tm *TokenManager, revoked RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return &apperr.UnauthorizedError{Reason: "missing bearer token"}
			}

			sess, err := tm.Parse(strings.TrimSpace(token))
			if err != nil {
				return &apperr.UnauthorizedError{Reason: "invalid token"}
			}

			if revoked != nil {
				isRevoked, err := revoked.IsRevoked(c.Request().Context(), sess.TokenID)
				if err != nil {
					return apperr.Persistence("check token revocation", err)
				}
				if isRevoked {
					return &apperr.UnauthorizedError{Reason: "session ended"}
				}
			}

			c.Set(sessionContextKey, sess)
			c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := GetSession(c)
		if sess == nil {
			return &apperr.UnauthorizedError{Reason: "missing session"}
		}
		if !sess.IsAdmin {
			return &apperr.ForbiddenError{Reason: "admin only"}
		}
		return next(c)
	}
}

func GetSession(c echo.Context) *Session {
	if s, ok := c.Get(sessionContextKey).(*Session); ok {
		return s
	}
	return FromContext(c.Request().Context())
}
