package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T, dstRoot string) *Cache {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := OpenCache(dstRoot)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachePutLookup(t *testing.T) {
	c := openTestCache(t, "/out")

	require.NoError(t, c.Put("/out/x.mq4", 100, 12345, Fingerprint("aaa")))
	require.NoError(t, c.Flush())

	fp, ok := c.Lookup("/out/x.mq4", 100, 12345)
	require.True(t, ok)
	assert.Equal(t, Fingerprint("aaa"), fp)
}

func TestCacheLookupMiss(t *testing.T) {
	c := openTestCache(t, "/out")

	_, ok := c.Lookup("/out/never-seen.mq4", 1, 1)
	assert.False(t, ok)
}

func TestCacheInvalidatedBySizeOrMtime(t *testing.T) {
	c := openTestCache(t, "/out")

	require.NoError(t, c.Put("/out/x.mq4", 100, 12345, Fingerprint("aaa")))
	require.NoError(t, c.Flush())

	_, ok := c.Lookup("/out/x.mq4", 101, 12345)
	assert.False(t, ok, "size change must invalidate")

	_, ok = c.Lookup("/out/x.mq4", 100, 99999)
	assert.False(t, ok, "mtime change must invalidate")
}

func TestCacheOverwrite(t *testing.T) {
	c := openTestCache(t, "/out")

	require.NoError(t, c.Put("/out/x.mq4", 100, 1, Fingerprint("old")))
	require.NoError(t, c.Put("/out/x.mq4", 200, 2, Fingerprint("new")))
	require.NoError(t, c.Flush())

	fp, ok := c.Lookup("/out/x.mq4", 200, 2)
	require.True(t, ok)
	assert.Equal(t, Fingerprint("new"), fp)
}

func TestCacheSurvivesReopen(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c, err := OpenCache("/out")
	require.NoError(t, err)
	require.NoError(t, c.Put("/out/x.mq4", 100, 12345, Fingerprint("aaa")))
	require.NoError(t, c.Close())

	c2, err := OpenCache("/out")
	require.NoError(t, err)
	defer c2.Close()

	fp, ok := c2.Lookup("/out/x.mq4", 100, 12345)
	require.True(t, ok)
	assert.Equal(t, Fingerprint("aaa"), fp)
}

func TestCacheDistinctRoots(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c1, err := OpenCache("/out-one")
	require.NoError(t, err)
	defer c1.Close()
	c2, err := OpenCache("/out-two")
	require.NoError(t, err)
	defer c2.Close()

	assert.NotEqual(t, c1.Path(), c2.Path())

	require.NoError(t, c1.Put("/out-one/x.mq4", 1, 1, Fingerprint("aaa")))
	require.NoError(t, c1.Flush())

	_, ok := c2.Lookup("/out-one/x.mq4", 1, 1)
	assert.False(t, ok)
}

func TestCacheID(t *testing.T) {
	assert.Equal(t, cacheID("/out"), cacheID("/out"))
	assert.NotEqual(t, cacheID("/out"), cacheID("/other"))
	assert.Len(t, cacheID("/out"), 16)
}
