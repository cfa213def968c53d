package localstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func TestMemoryReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().For("s1")

	_, ok, err := s.ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.WriteKey(ctx, KeyCart, "[]"))
	v, ok, err := s.ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, s.RemoveKey(ctx, KeyCart))
	_, ok, err = s.ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.For("a").WriteKey(ctx, KeyCart, "x"))
	_, ok, err := m.For("b").ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := m.For("a").ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().For("s1")
	want := []line{{ID: "p1", Qty: 2}, {ID: "p2", Qty: 1}}

	require.NoError(t, Save(ctx, s, KeyCart, want))
	got, err := Load[[]line](ctx, s, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingKeyIsZero(t *testing.T) {
	got, err := Load[[]line](context.Background(), NewMemory().For("s1"), KeyWishlist)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCorruptValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemory().For("s1")
	require.NoError(t, s.WriteKey(ctx, KeyCart, "{not json"))

	_, err := Load[[]line](ctx, s, KeyCart)
	assert.Error(t, err)
}

func TestBroadcastReachesWatchers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := m.For("s1")

	var seen []string
	stop, err := s.Watch(ctx, func(name string) { seen = append(seen, name) })
	require.NoError(t, err)

	require.NoError(t, Save(ctx, s, KeyCart, []line{}))
	require.NoError(t, Remove(ctx, m.For("s1"), KeyCart))
	assert.Equal(t, []string{KeyCart, KeyCart}, seen)

	stop()
	require.NoError(t, s.Broadcast(ctx, KeyAddresses))
	assert.Len(t, seen, 2)
}

func TestClearRemovesEverySessionKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	s := m.For("leaving")
	other := m.For("staying")

	for _, name := range SessionKeys {
		require.NoError(t, s.WriteKey(ctx, name, `[]`))
	}
	require.NoError(t, other.WriteKey(ctx, KeyCart, `[]`))

	var got []string
	stop, err := s.Watch(ctx, func(name string) { got = append(got, name) })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, Clear(ctx, s))

	for _, name := range SessionKeys {
		_, ok, err := s.ReadKey(ctx, name)
		require.NoError(t, err)
		assert.False(t, ok, name)
	}
	assert.Equal(t, SessionKeys, got)

	_, ok, err := other.ReadKey(ctx, KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
}
