package priority

import (
	"context"
	"testing"
	"time"

	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/shared/types"
	"github.com/coni/hyperisle/internal/storage"
)

// daytime reference point well outside quiet hours.
var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, now time.Time) *Engine {
	t.Helper()
	cfg := config.Default().Engine
	return NewEngine(cfg, nil, logging.NewDevelopment(), WithClock(func() time.Time { return now }))
}

func TestScoreEmptyIsZero(t *testing.T) {
	e := newTestEngine(t, noon)
	if got := e.Score("com.example.app", noon); got != 0 {
		t.Fatalf("expected zero score for unknown app, got %f", got)
	}
}

func TestFastDismissLowersScore(t *testing.T) {
	e := newTestEngine(t, noon)

	shown := noon.Add(-time.Second)
	e.RecordDismiss("com.example.app", shown, noon)

	if got := e.Score("com.example.app", noon); got >= 0 {
		t.Fatalf("fast dismiss should lower score, got %f", got)
	}
}

func TestSlowDismissIsNeutral(t *testing.T) {
	e := newTestEngine(t, noon)

	shown := noon.Add(-time.Minute)
	e.RecordDismiss("com.example.app", shown, noon)

	if got := e.Score("com.example.app", noon); got != 0 {
		t.Fatalf("slow dismiss should not score, got %f", got)
	}
}

func TestOpenRaisesScore(t *testing.T) {
	e := newTestEngine(t, noon)

	e.RecordDismiss("com.example.app", noon.Add(-time.Second), noon)
	e.RecordOpen("com.example.app", noon)

	if got := e.Score("com.example.app", noon); got <= 0 {
		t.Fatalf("open should outweigh one fast dismiss, got %f", got)
	}
}

func TestDecayOverCalendarDays(t *testing.T) {
	e := newTestEngine(t, noon)

	twoDaysAgo := noon.Add(-48 * time.Hour)
	e.RecordDismiss("com.example.app", twoDaysAgo.Add(-time.Second), twoDaysAgo)

	got := e.Score("com.example.app", noon)
	want := dismissWeight * dayWeights[2]
	if got != want {
		t.Fatalf("expected decayed score %f, got %f", want, got)
	}

	// Outside the 3-day window the event no longer contributes.
	if late := e.Score("com.example.app", noon.Add(48*time.Hour)); late != 0 {
		t.Fatalf("expected expired score 0, got %f", late)
	}
}

func TestDayBucketsFollowLocalMidnight(t *testing.T) {
	// 09:00 local is 22:00 the previous day in UTC; the dismissal the
	// evening before sits on the same UTC day but the previous local
	// one, so it must land in the one-day-old bucket.
	loc := time.FixedZone("UTC+11", 11*3600)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	yesterday := time.Date(2026, 3, 9, 21, 0, 0, 0, loc)

	e := newTestEngine(t, now)
	e.RecordDismiss("com.example.app", yesterday.Add(-time.Second), yesterday)

	got := e.Score("com.example.app", now)
	want := dismissWeight * dayWeights[1]
	if got != want {
		t.Fatalf("expected day-old score %f, got %f", want, got)
	}
}

// memPersister records hydration calls without a real database.
type memPersister struct {
	events       map[string][]storage.ScoreEvent
	prunedBefore time.Time
}

func (m *memPersister) SaveProfile(context.Context, types.AppPriorityProfile) error { return nil }
func (m *memPersister) AppendScoreEvent(context.Context, storage.ScoreEvent) error  { return nil }
func (m *memPersister) LoadProfiles(context.Context) ([]types.AppPriorityProfile, error) {
	return nil, nil
}

func (m *memPersister) LoadScoreEvents(context.Context, time.Time) (map[string][]storage.ScoreEvent, error) {
	return m.events, nil
}

func (m *memPersister) PruneScoreEvents(_ context.Context, before time.Time) error {
	m.prunedBefore = before
	return nil
}

func TestHydratePrunesExpiredSamples(t *testing.T) {
	store := &memPersister{}
	cfg := config.Default().Engine
	e := NewEngine(cfg, store, logging.NewDevelopment(), WithClock(func() time.Time { return noon }))

	if err := e.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := noon.Add(-72 * time.Hour)
	if !store.prunedBefore.Equal(want) {
		t.Fatalf("expected prune cutoff %v, got %v", want, store.prunedBefore)
	}
}

func TestLearnedThrottleTrips(t *testing.T) {
	e := newTestEngine(t, noon)

	// Dismiss fast enough times to cross the standard threshold.
	for i := 0; i < 5; i++ {
		at := noon.Add(time.Duration(i) * time.Minute)
		e.RecordDismiss("com.spam.app", at.Add(-time.Second), at)
	}

	later := noon.Add(time.Hour)
	throttled, cause := e.Throttled("com.spam.app", types.CategoryStandard, types.ProfileNormal, later)
	if !throttled || cause != CauseLearned {
		t.Fatalf("expected learned throttle, got throttled=%v cause=%q", throttled, cause)
	}
}

func TestCallsNeverThrottleAtStandardDepth(t *testing.T) {
	e := newTestEngine(t, noon)

	for i := 0; i < 5; i++ {
		at := noon.Add(time.Duration(i) * time.Minute)
		e.RecordDismiss("com.dialer", at.Add(-time.Second), at)
	}

	later := noon.Add(time.Hour)
	if throttled, _ := e.Throttled("com.dialer", types.CategoryCall, types.ProfileNormal, later); throttled {
		t.Fatal("call category needs a far deeper score before throttling")
	}
}

func TestLenientProfileRaisesDepth(t *testing.T) {
	e := newTestEngine(t, noon)

	for i := 0; i < 4; i++ {
		at := noon.Add(time.Duration(i) * time.Minute)
		e.RecordDismiss("com.example.app", at.Add(-time.Second), at)
	}
	later := noon.Add(time.Hour)

	if throttled, _ := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, later); !throttled {
		t.Fatal("expected normal profile to trip at score -4")
	}
	e2 := newTestEngine(t, noon)
	for i := 0; i < 4; i++ {
		at := noon.Add(time.Duration(i) * time.Minute)
		e2.RecordDismiss("com.example.app", at.Add(-time.Second), at)
	}
	if throttled, _ := e2.Throttled("com.example.app", types.CategoryStandard, types.ProfileLenient, later); throttled {
		t.Fatal("lenient profile should not trip at score -4")
	}
}

func TestQuietHoursBias(t *testing.T) {
	// 23:00 is inside the default 22-07 quiet window.
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	e := newTestEngine(t, night)

	for i := 0; i < 2; i++ {
		at := night.Add(time.Duration(i) * time.Minute)
		e.RecordDismiss("com.example.app", at.Add(-time.Second), at)
	}

	// Night dismissals carry half weight, so the score is -1. The
	// quiet threshold for standard is -1.5: not tripped yet.
	later := night.Add(30 * time.Minute)
	if throttled, _ := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, later); throttled {
		t.Fatal("two night dismissals should not trip the quiet threshold")
	}

	e.RecordDismiss("com.example.app", later.Add(-time.Second), later)
	if throttled, cause := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, later.Add(time.Minute)); !throttled || cause != CauseLearned {
		t.Fatalf("third night dismissal should trip, got throttled=%v cause=%q", throttled, cause)
	}
}

func TestBurstControl(t *testing.T) {
	e := newTestEngine(t, noon)

	for i := 0; i < 3; i++ {
		at := noon.Add(time.Duration(i) * 100 * time.Millisecond)
		if throttled, _ := e.Throttled("com.burst.app", types.CategoryStandard, types.ProfileNormal, at); throttled {
			t.Fatalf("event %d inside burst budget should pass", i)
		}
	}

	at := noon.Add(400 * time.Millisecond)
	throttled, cause := e.Throttled("com.burst.app", types.CategoryStandard, types.ProfileNormal, at)
	if !throttled || cause != CauseBurst {
		t.Fatalf("fourth event in window should burst-throttle, got throttled=%v cause=%q", throttled, cause)
	}

	// After the window drains a token the app passes again.
	later := noon.Add(11 * time.Second)
	if throttled, _ := e.Throttled("com.burst.app", types.CategoryStandard, types.ProfileNormal, later); throttled {
		t.Fatal("expected burst budget to refill after the window")
	}
}

func TestManualThrottleAndClear(t *testing.T) {
	e := newTestEngine(t, noon)

	e.ManualThrottle("com.example.app", noon.Add(time.Hour))
	throttled, cause := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, noon)
	if !throttled || cause != CauseManual {
		t.Fatalf("expected manual throttle, got throttled=%v cause=%q", throttled, cause)
	}

	// Manual override wins even for calls.
	if throttled, _ := e.Throttled("com.example.app", types.CategoryCall, types.ProfileNormal, noon.Add(time.Second)); !throttled {
		t.Fatal("manual override should apply to every category")
	}

	e.ClearThrottle("com.example.app")
	if throttled, _ := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, noon.Add(2*time.Second)); throttled {
		t.Fatal("cleared override should admit events again")
	}

	// Expiry also clears it.
	e.ManualThrottle("com.example.app", noon.Add(time.Hour))
	if throttled, _ := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, noon.Add(2*time.Hour)); throttled {
		t.Fatal("expired override should admit events again")
	}
}

func TestColdCacheFailsOpen(t *testing.T) {
	e := newTestEngine(t, noon)
	e.hydrated = false

	if throttled, _ := e.Throttled("com.example.app", types.CategoryStandard, types.ProfileNormal, noon); throttled {
		t.Fatal("cold cache must never throttle")
	}
}
