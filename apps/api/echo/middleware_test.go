package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func Test_ipRateLimiter_allow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newIPRateLimiter(4) // 1 token every 15s, burst 2
	rl.nowFunc = func() time.Time { return now }

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2")) // buckets are per IP

	now = now.Add(15 * time.Second)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	now = now.Add(limiterTTL + time.Second)
	rl.allow("10.0.0.3")
	assert.Len(t, rl.limiters, 1)
}

func Test_ipRateLimiter_sweep(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	rl := newIPRateLimiter(60)
	rl.nowFunc = func() time.Time { return now }

	rl.allow("10.0.0.1")
	assert.Equal(t, start, rl.lastSweep)

	tests := []struct {
		name      string
		at        time.Duration
		ip        string
		wantLen   int
		wantSweep time.Duration
	}{
		{name: "before ttl", at: time.Minute, ip: "10.0.0.2", wantLen: 2, wantSweep: 0},
		{name: "due with nothing expired", at: limiterTTL, ip: "10.0.0.3", wantLen: 3, wantSweep: limiterTTL},
		{name: "expired but not due", at: limiterTTL + 2*time.Minute, ip: "10.0.0.4", wantLen: 4, wantSweep: limiterTTL},
		{name: "due", at: 2 * limiterTTL, ip: "10.0.0.5", wantLen: 3, wantSweep: 2 * limiterTTL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			now = start.Add(tc.at)
			rl.allow(tc.ip)
			assert.Len(t, rl.limiters, tc.wantLen)
			assert.Equal(t, start.Add(tc.wantSweep), rl.lastSweep)
		})
	}
}

func Test_ipRateLimiter_middleware(t *testing.T) {
	e := echo.New()
	rl := newIPRateLimiter(1)
	handler := rl.middleware()(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	})

	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.NoError(t, handler(newCtx()))
	assert.Equal(t, errTooManyRequests, handler(newCtx()))
}

func Test_newIPRateLimiter(t *testing.T) {
	rl := newIPRateLimiter(0)
	assert.Equal(t, 1, rl.burst)

	rl = newIPRateLimiter(120)
	assert.Equal(t, 60, rl.burst)
}
