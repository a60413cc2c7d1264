package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheBoundedSize(t *testing.T) {
	c := New[string, int](DefaultSize, time.Minute)
	for i := 0; i < 15; i++ {
		c.Add(fmt.Sprintf("k%d", i), i)
	}
	assert.Equal(t, 10, c.Len())

	_, ok := c.Get("k0")
	assert.False(t, ok, "oldest entry should be evicted")
	v, ok := c.Get("k14")
	require.True(t, ok)
	assert.Equal(t, 14, v)
}

func TestTTLCacheExpires(t *testing.T) {
	c := New[string, string](3, 20*time.Millisecond)
	c.Add("ws:1|2026-10", "eventos")
	_, ok := c.Get("ws:1|2026-10")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("ws:1|2026-10")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTTLCacheRemoveFunc(t *testing.T) {
	c := New[string, int](0, 0)
	c.Add("ws:1|a", 1)
	c.Add("ws:1|b", 2)
	c.Add("ws:2|a", 3)

	n := c.RemoveFunc(func(k string) bool { return strings.HasPrefix(k, "ws:1|") })
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCachesAreIndependent(t *testing.T) {
	a := New[string, int](2, time.Minute)
	b := New[string, int](2, time.Minute)
	a.Add("k", 1)
	_, ok := b.Get("k")
	assert.False(t, ok)
}
