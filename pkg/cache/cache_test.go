package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v", 20*time.Millisecond)
	val, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", val)

	time.Sleep(30 * time.Millisecond)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok, "expired entries read as misses")
}

func TestMemorySetOverwritesAndResetsTTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v1", time.Minute)
	m.Set(ctx, "k", "v2", time.Minute)

	val, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v2", val)
	assert.Equal(t, 1, m.Len())
}

func TestDeleteIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v", 0)
	m.Delete(ctx, "k")
	m.Delete(ctx, "k", "missing")

	_, ok := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestGetJSONDropsCorruptEntries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "{not json", time.Minute)

	var dest map[string]int
	ok := GetJSON(ctx, m, "k", &dest)
	assert.False(t, ok, "corrupt entries read as misses")
	assert.Equal(t, 0, m.Len(), "corrupt entries are purged")
}

func TestSetJSONRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	SetJSON(ctx, m, "k", payload{Name: "x", Count: 3}, time.Minute)

	var got payload
	require.True(t, GetJSON(ctx, m, "k", &got))
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestNoopAlwaysMisses(t *testing.T) {
	n := NewNoop()
	ctx := context.Background()

	n.Set(ctx, "k", "v", time.Minute)
	_, ok := n.Get(ctx, "k")
	assert.False(t, ok)
}
