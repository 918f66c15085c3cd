package auth

import (
	"context"
	"time"
)

const revokedPrefix = "greencart:auth:revoked:"

// KV is the cache surface the denylist needs. The Redis client and the
// in-process memcache both satisfy it.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Denylist remembers revoked token ids until the tokens would have expired
type Denylist struct {
	kv  KV
	now func() time.Time
}

// NewDenylist creates a denylist backed by kv
func NewDenylist(kv KV) *Denylist {
	return &Denylist{kv: kv, now: time.Now}
}

// Revoke denies the token id until its expiry. Already expired tokens are
// not stored.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiry time.Time) error {
	if tokenID == "" {
		return ErrMissingClaims
	}
	ttl := expiry.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.kv.Set(ctx, revokedPrefix+tokenID, true, ttl)
}

// IsRevoked reports whether the token id was revoked
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return d.kv.Exists(ctx, revokedPrefix+tokenID)
}

// Verifier checks tokens against the issuer and the denylist
type Verifier struct {
	issuer   *Issuer
	denylist *Denylist
}

// NewVerifier combines an issuer and an optional denylist
func NewVerifier(issuer *Issuer, denylist *Denylist) *Verifier {
	return &Verifier{issuer: issuer, denylist: denylist}
}

// Verify parses the token and rejects revoked ones
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := v.issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	if v.denylist == nil {
		return claims, nil
	}
	revoked, err := v.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke denylists the token described by claims
func (v *Verifier) Revoke(ctx context.Context, claims *Claims) error {
	if v.denylist == nil {
		return nil
	}
	return v.denylist.Revoke(ctx, claims.ID, claims.Expiry())
}
