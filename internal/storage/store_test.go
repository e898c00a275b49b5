package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coni/hyperisle/internal/shared/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := types.AppPriorityProfile{
		Package:        "com.example.chat",
		Score:          -2.5,
		LastDismiss:    time.UnixMilli(1000),
		ThrottledUntil: time.UnixMilli(9000),
		Profile:        types.ProfileStrict,
	}
	require.NoError(t, s.SaveProfile(ctx, p))

	// Upsert overwrites
	p.Score = -3.0
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.LoadProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, -3.0, got[0].Score)
	assert.Equal(t, types.ProfileStrict, got[0].Profile)
	assert.True(t, got[0].LastOpen.IsZero())
}

func TestScoreEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i, w := range []float64{-1, -1, 2} {
		require.NoError(t, s.AppendScoreEvent(ctx, ScoreEvent{
			Package: "com.example.chat",
			At:      now.Add(time.Duration(i) * time.Minute),
			Weight:  w,
		}))
	}
	require.NoError(t, s.AppendScoreEvent(ctx, ScoreEvent{
		Package: "com.other",
		At:      now.Add(-96 * time.Hour),
		Weight:  -1,
	}))

	events, err := s.LoadScoreEvents(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Len(t, events["com.example.chat"], 3)
	assert.Empty(t, events["com.other"])

	require.NoError(t, s.PruneScoreEvents(ctx, now.Add(-72*time.Hour)))
	events, err = s.LoadScoreEvents(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, events["com.other"])
}

func TestCooldownRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := types.CooldownRecord{
		PackageName:      "com.example.chat",
		NotificationType: types.CategoryMessage,
		LastDismissedAt:  time.UnixMilli(5000),
	}
	require.NoError(t, s.SaveCooldown(ctx, rec))

	// Same key overwrites
	rec.LastDismissedAt = time.UnixMilli(7000)
	require.NoError(t, s.SaveCooldown(ctx, rec))

	got, err := s.LoadCooldowns(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7000), got[0].LastDismissedAt.UnixMilli())
	assert.Equal(t, "com.example.chat:message", got[0].Key())
}

func TestDigestQueryRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(100000)

	for i := 0; i < 5; i++ {
		item := types.DigestItem{
			ID:          string(rune('a' + i)),
			PackageName: "com.example.chat",
			PostTime:    base.Add(time.Duration(i) * time.Minute),
		}
		if i%2 == 1 {
			item.Reason = types.ReasonMuted
		}
		require.NoError(t, s.AppendDigest(ctx, item))
	}

	// Duplicate append is a no-op
	require.NoError(t, s.AppendDigest(ctx, types.DigestItem{
		ID: "a", PackageName: "com.example.chat", PostTime: base,
	}))

	got, err := s.QueryDigest(ctx, base, base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first
	assert.True(t, got[0].PostTime.After(got[2].PostTime))
	assert.Equal(t, types.ReasonMuted, got[1].Reason)
}
