package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-min-32-characters-long"

func TestIssuer_IssueAndParse(t *testing.T) {
	issuer := NewIssuer(testSecret, "greencart", time.Hour)
	id := Identity{UserID: uuid.New(), Username: "admin", Staff: true}

	token, issued, err := issuer.Issue(id)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "greencart", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestIssuer_UniqueTokenIDs(t *testing.T) {
	issuer := NewIssuer(testSecret, "greencart", time.Hour)
	id := Identity{UserID: uuid.New(), Username: "admin"}

	_, a, err := issuer.Issue(id)
	require.NoError(t, err)
	_, b, err := issuer.Issue(id)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestIssuer_Parse(t *testing.T) {
	id := Identity{UserID: uuid.New(), Username: "manager"}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		parser  *Issuer
		wantErr error
	}{
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, _, err := NewIssuer(testSecret, "greencart", -time.Hour).Issue(id)
				require.NoError(t, err)
				return tok
			},
			parser:  NewIssuer(testSecret, "greencart", time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, _, err := NewIssuer("another-secret-key-min-32-characters", "greencart", time.Hour).Issue(id)
				require.NoError(t, err)
				return tok
			},
			parser:  NewIssuer(testSecret, "greencart", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				tok, _, err := NewIssuer(testSecret, "someone-else", time.Hour).Issue(id)
				require.NoError(t, err)
				return tok
			},
			parser:  NewIssuer(testSecret, "greencart", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not.a.token" },
			parser:  NewIssuer(testSecret, "greencart", time.Hour),
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIssuer_RequiresUser(t *testing.T) {
	_, _, err := NewIssuer(testSecret, "greencart", time.Hour).Issue(Identity{Username: "ghost"})
	assert.ErrorIs(t, err, ErrMissingClaims)
}

type mapKV struct {
	items map[string]time.Duration
}

func (m *mapKV) Set(_ context.Context, key string, _ interface{}, ttl time.Duration) error {
	m.items[key] = ttl
	return nil
}

func (m *mapKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.items[key]
	return ok, nil
}

func TestVerifier_Revoke(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{items: map[string]time.Duration{}}
	issuer := NewIssuer(testSecret, "greencart", time.Hour)
	verifier := NewVerifier(issuer, NewDenylist(kv))

	token, _, err := issuer.Issue(Identity{UserID: uuid.New(), Username: "admin"})
	require.NoError(t, err)

	claims, err := verifier.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, verifier.Revoke(ctx, claims))
	_, err = verifier.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	ttl := kv.items[revokedPrefix+claims.ID]
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestDenylist_ExpiredTokenNotStored(t *testing.T) {
	kv := &mapKV{items: map[string]time.Duration{}}
	d := NewDenylist(kv)

	require.NoError(t, d.Revoke(context.Background(), "jti", time.Now().Add(-time.Minute)))
	assert.Empty(t, kv.items)
	assert.ErrorIs(t, d.Revoke(context.Background(), "", time.Now().Add(time.Hour)), ErrMissingClaims)
}

func TestVerifier_WithoutDenylist(t *testing.T) {
	issuer := NewIssuer(testSecret, "greencart", time.Hour)
	verifier := NewVerifier(issuer, nil)

	token, issued, err := issuer.Issue(Identity{UserID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, verifier.Revoke(context.Background(), issued))

	_, err = verifier.Verify(context.Background(), token)
	assert.NoError(t, err)
}
