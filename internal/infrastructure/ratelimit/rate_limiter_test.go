package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(PerMinute(20), map[string]Policy{
		ActionSubmitReview: {Every: time.Minute, Burst: 2},
	})
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	ok, _ := rl.Allow("u1", ActionSubmitReview)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionSubmitReview)
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", ActionSubmitReview)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Minute)

	clock = clock.Add(time.Minute)
	ok, _ = rl.Allow("u1", ActionSubmitReview)
	assert.True(t, ok)
}

func TestRateLimiterKeysByUserAndAction(t *testing.T) {
	rl := NewRateLimiter(Policy{Every: time.Hour, Burst: 1}, nil)

	ok, _ := rl.Allow("u1", ActionBuyNow)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionBuyNow)
	assert.False(t, ok)

	ok, _ = rl.Allow("u2", ActionBuyNow)
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", ActionDeleteReview)
	assert.True(t, ok)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(PerMinute(10), nil)
	clock := time.Now()
	rl.now = func() time.Time { return clock }

	rl.Allow("u1", ActionBuyNow)
	rl.Allow("u2", ActionBuyNow)
	assert.Equal(t, 2, rl.size())

	clock = clock.Add(2 * time.Hour)
	rl.Allow("u3", ActionBuyNow)
	rl.Cleanup(time.Hour)
	assert.Equal(t, 1, rl.size())
}
