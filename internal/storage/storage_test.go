package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestMemory(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	_, err := kv.Get(ctx, "c1", "user")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "c1", "user", "a"))
	require.NoError(t, kv.Set(ctx, "c2", "user", "b"))
	v, err := kv.Get(ctx, "c1", "user")
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	require.NoError(t, kv.Delete(ctx, "c1", "user"))
	require.NoError(t, kv.Delete(ctx, "c1", "user"))
	_, err = kv.Get(ctx, "c1", "user")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = kv.Get(ctx, "c2", "user")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	a := NewScoped(kv, "a")
	b := NewScoped(kv, "b")

	require.NoError(t, a.Set(ctx, "user", "alice"))
	_, err := b.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := a.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	require.NoError(t, a.Delete(ctx, "user"))
	_, err = kv.Get(ctx, "a", "user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSealed(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	kv, err := NewSealed(inner, testKey)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "c", "user", `{"id":"1"}`))
	raw, err := inner.Get(ctx, "c", "user")
	require.NoError(t, err)
	assert.NotContains(t, raw, `"id"`)

	v, err := kv.Get(ctx, "c", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, v)

	require.NoError(t, inner.Set(ctx, "c", "user", "not base64!"))
	_, err = kv.Get(ctx, "c", "user")
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, inner.Set(ctx, "c", "user", "aGVsbG8gd29ybGQgdGhpcyBpcyBub3QgY2lwaGVy"))
	_, err = kv.Get(ctx, "c", "user")
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = kv.Get(ctx, "c", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewSealed(inner, []byte("short"))
	assert.Error(t, err)
}
