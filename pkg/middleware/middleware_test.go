package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterExhaustsTokens(t *testing.T) {
	limiter := NewRateLimiter(3, 0)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow())
	}
	assert.False(t, limiter.Allow(), "bucket must be empty after maxTokens requests")
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(1, 100) // 100 tokens/s

	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.Allow(), "tokens must refill over time")
}
