package ratelimit

import (
	"testing"
	"time"

	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenBlock(t *testing.T) {
	l := NewInMemoryLimiter(5, time.Minute, 2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("tg:1"))
	assert.True(t, l.Allow("tg:1"))
	assert.False(t, l.Allow("tg:1"))

	// other keys have their own bucket
	assert.True(t, l.Allow("tg:2"))

	// one token every 12 seconds
	now = now.Add(12 * time.Second)
	assert.True(t, l.Allow("tg:1"))
	assert.False(t, l.Allow("tg:1"))
}

func TestIdleBucketsAreEvicted(t *testing.T) {
	l := NewInMemoryLimiter(1, time.Second, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Len(t, l.buckets, 2)

	now = now.Add(time.Minute)
	l.Allow("c")
	assert.Len(t, l.buckets, 1)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.RateLimit.PerMinute = 5
	cfg.RateLimit.Burst = 1

	l := NewFromConfig(cfg)
	assert.True(t, l.Allow("ip:10.0.0.1"))
	assert.False(t, l.Allow("ip:10.0.0.1"))
	assert.True(t, l.Allow("tg-user:10"))
}
