// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openreview-mcp/pkg/types"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(types.CacheConfig{Dir: t.TempDir(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()
	spec := types.VenueSpec{Venue: "ICLR.cc", Year: "2024"}
	subs := []types.Submission{
		{ID: "n1", Title: "Paper One", Authors: []string{"Alice"}},
		{ID: "n2", Title: "Paper Two"},
	}

	require.NoError(t, s.Put(ctx, spec, subs))

	got, ok := s.Get(ctx, spec)
	require.True(t, ok)
	assert.Equal(t, subs, got)
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t, time.Hour)
	_, ok := s.Get(context.Background(), types.VenueSpec{Venue: "ICML.cc", Year: "2023"})
	assert.False(t, ok)
}

func TestGetExpired(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()
	spec := types.VenueSpec{Venue: "ICLR.cc", Year: "2024"}
	require.NoError(t, s.Put(ctx, spec, []types.Submission{{ID: "n1", Title: "T"}}))

	old := now
	now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	defer func() { now = old }()

	_, ok := s.Get(ctx, spec)
	assert.False(t, ok, "expired entry must behave like a miss")
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()
	spec := types.VenueSpec{Venue: "ICLR.cc", Year: "2024"}

	require.NoError(t, s.Put(ctx, spec, []types.Submission{{ID: "old", Title: "Old"}}))
	require.NoError(t, s.Put(ctx, spec, []types.Submission{{ID: "new", Title: "New"}}))

	got, ok := s.Get(ctx, spec)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestPurgeRemovesExpiredKeepsFresh(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()
	fresh := types.VenueSpec{Venue: "ICLR.cc", Year: "2024"}
	stale := types.VenueSpec{Venue: "ICML.cc", Year: "2020"}

	old := now
	now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	require.NoError(t, s.Put(ctx, stale, []types.Submission{{ID: "s", Title: "S"}}))
	now = old

	require.NoError(t, s.Put(ctx, fresh, []types.Submission{{ID: "f", Title: "F"}}))
	require.NoError(t, s.Purge(ctx))

	if _, ok := s.Get(ctx, stale); ok {
		t.Error("stale entry survived purge")
	}
	if _, ok := s.Get(ctx, fresh); !ok {
		t.Error("fresh entry lost in purge")
	}
}
