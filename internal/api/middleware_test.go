package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimiter_LimitsPerAddress(t *testing.T) {
	l := newIPLimiter(2)
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	a := httptest.NewRequest("POST", "/api/auth/login", nil)
	a.RemoteAddr = "10.0.0.1:5000"
	b := httptest.NewRequest("POST", "/api/auth/login", nil)
	b.RemoteAddr = "10.0.0.2:5000"

	assert.True(t, l.allow(a))
	assert.True(t, l.allow(a))
	assert.False(t, l.allow(a))
	assert.True(t, l.allow(b))
}

func TestIPLimiter_DropsIdleAddresses(t *testing.T) {
	l := newIPLimiter(5)
	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = addr
		require.True(t, l.allow(r))
	}
	assert.Equal(t, 3, l.size())

	now = now.Add(30 * time.Second)
	recent := httptest.NewRequest("POST", "/api/auth/login", nil)
	recent.RemoteAddr = "10.0.0.4:1"
	require.True(t, l.allow(recent))
	assert.Equal(t, 4, l.size())

	now = now.Add(45 * time.Second)
	again := httptest.NewRequest("POST", "/api/auth/login", nil)
	again.RemoteAddr = "10.0.0.5:1"
	require.True(t, l.allow(again))
	assert.Equal(t, 2, l.size(), "only the addresses seen within the last minute remain")
}
