package storage

import (
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, config ...RedisConfig) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client, config...)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRedis_PutGetRoundTrip(t *testing.T) {
	r := newTestRedis(t)

	require.NoError(t, r.Put("a", `{"value":"hi"}`))

	v, ok, err := r.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"value":"hi"}`, v)
}

func TestRedis_GetMissing(t *testing.T) {
	r := newTestRedis(t)

	_, ok, err := r.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Delete(t *testing.T) {
	r := newTestRedis(t)

	require.NoError(t, r.Put("a", "1"))
	require.NoError(t, r.Delete("a"))

	_, ok, err := r.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_KeysStripPrefix(t *testing.T) {
	r := newTestRedis(t)

	require.NoError(t, r.Put("entry:a", "1"))
	require.NoError(t, r.Put("entry:b", "2"))
	require.NoError(t, r.Put("backup:x", "3"))

	keys, err := r.Keys()
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"backup:x", "entry:a", "entry:b"}, keys)
}

func TestRedis_PrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := NewRedis(clientA, RedisConfig{Prefix: "appa"})
	b := NewRedis(clientB, RedisConfig{Prefix: "appb"})
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Put("shared", "from-a"))
	require.NoError(t, b.Put("shared", "from-b"))

	v, ok, err := a.Get("shared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from-a", v)

	keys, err := b.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, keys)
}
