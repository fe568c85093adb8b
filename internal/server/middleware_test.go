package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(rl.Allow("conn-1"), "frame %d", i)
	}
	assert.False(rl.Allow("conn-1"))
}

func TestRateLimiter_ConnectionsAreIndependent(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(1, time.Minute)

	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-2"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(2, 50*time.Millisecond)

	assert.True(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(rl.Allow("conn-1"))
}

func TestRateLimiter_RemoveConnectionResets(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(1, time.Minute)

	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))

	rl.RemoveConnection("conn-1")
	assert.True(rl.Allow("conn-1"))
}
