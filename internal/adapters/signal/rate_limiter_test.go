package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventRateLimiter(t *testing.T) {
	rl := NewEventRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("c1"), "attempt %d should pass", i)
	}
	assert.False(t, rl.Allow("c1"), "fourth attempt in window is blocked")
	assert.True(t, rl.Allow("c2"), "connections are limited independently")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("c1"), "window slides, old attempts expire")
}

func TestEventRateLimiter_Forget(t *testing.T) {
	rl := NewEventRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"), "forgotten connections start fresh")
}

func TestWsConnTrySendBackpressure(t *testing.T) {
	c := &wsConn{send: make(chan []byte, 1)}

	assert.NoError(t, c.TrySend([]byte("one")))
	assert.ErrorIs(t, c.TrySend([]byte("two")), ErrBackpressure)

	<-c.send
	assert.NoError(t, c.TrySend([]byte("three")))
}
