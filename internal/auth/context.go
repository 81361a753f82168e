package auth

import (
	"context"
)

// Session is the caller identity passed explicitly into every usecase call.
type Session struct {
	UserID    string
	Email     string
	IsAdmin   bool
	TokenID   string
	ExpiresAt int64
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session placed by the auth middleware, or nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return nil
}

// CanAccess reports whether the session may read or mutate a resource owned by ownerID.
func (s *Session) CanAccess(ownerID string) bool {
	if s == nil {
		return false
	}
	return s.IsAdmin || s.UserID == ownerID
}
