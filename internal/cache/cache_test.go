// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New[string, string](20 * time.Millisecond)
	c.Set("k", "v")

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire after TTL")
}

func TestCacheInvalidate(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("k", 7)
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheSweep(t *testing.T) {
	c := New[int, int](time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(i, i)
	}
	assert.Equal(t, 5, c.Len())

	// Force expiry and run a sweep directly.
	c.mu.Lock()
	for k, e := range c.entries {
		e.expiresAt = time.Now().Add(-time.Second)
		c.entries[k] = e
	}
	c.mu.Unlock()
	c.sweep()
	assert.Zero(t, c.Len())
}

func TestCacheStopIdempotent(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Start()
	c.Stop()
	c.Stop()
}
