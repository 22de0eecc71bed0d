package ratelim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"

	"foodcart/globals"
)

func ok(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}

func hit(h httprouter.Handle, remote, user string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", nil)
	req.RemoteAddr = remote
	if user != "" {
		req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, user))
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec.Code
}

func TestLimitPerCaller(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(ok)

	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:1000", ""))
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:2000", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:3000", ""), "same IP, different port")

	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.2:1000", ""))
	assert.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1:1000", "u1"), "users get their own bucket")
}

func TestIdleVisitorsAreSwept(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("ip:a")
	now = now.Add(11 * time.Minute)
	rl.getLimiter("ip:b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "ip:a")
	assert.Contains(t, rl.visitors, "ip:b")
}
