package auth

import (
	"context"
	"time"
)

// Marker is the subset of the redis client used to remember revoked token ids.
type Marker interface {
	Mark(ctx context.Context, key string, ttl time.Duration) error
	IsMarked(ctx context.Context, key string) (bool, error)
}

// RevocationList stores revoked token ids until the token would have expired anyway.
type RevocationList struct {
	store Marker
	now   func() time.Time
}

func NewRevocationList(store Marker) *RevocationList {
	return &RevocationList{store: store, now: time.Now}
}

func revokedKey(tokenID string) string { return "revoked:" + tokenID }

// Revoke blocks tokenID until expiresAt (unix seconds). Already expired tokens are ignored.
func (r *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt int64) error {
	ttl := time.Unix(expiresAt, 0).Sub(r.now())
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.store.Mark(ctx, revokedKey(tokenID), ttl)
}

func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return r.store.IsMarked(ctx, revokedKey(tokenID))
}
