package island

import (
	"testing"
	"time"

	"github.com/coni/hyperisle/internal/feature"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/shared/types"
)

func cand(pkg string, priority int, at time.Time) feature.Candidate {
	return feature.Candidate{
		Feature:  &feature.StandardFeature{},
		State:    feature.StandardState{Key: pkg + "/k", Package: pkg},
		Priority: priority,
		EventAt:  at,
	}
}

func TestSelectEmpty(t *testing.T) {
	if got := Select(nil, types.LimitPriority, prefs.DefaultSnapshot()); got != nil {
		t.Fatalf("no candidates means no winner, got %+v", got)
	}
}

func TestSelectPriorityMode(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	cands := []feature.Candidate{
		cand("com.low", 10, testNow.Add(2*time.Second)),
		cand("com.high", 90, testNow),
		cand("com.mid", 40, testNow.Add(time.Second)),
	}

	winner := Select(cands, types.LimitPriority, snap)
	if statePackage(winner.State) != "com.high" {
		t.Fatalf("highest priority must win, got %s", statePackage(winner.State))
	}
}

func TestSelectPriorityTieBreaksByRecency(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	cands := []feature.Candidate{
		cand("com.older", 40, testNow),
		cand("com.newer", 40, testNow.Add(time.Second)),
	}

	winner := Select(cands, types.LimitPriority, snap)
	if statePackage(winner.State) != "com.newer" {
		t.Fatalf("ties break by most recent, got %s", statePackage(winner.State))
	}
}

func TestSelectPriorityManualOrderBeatsRecency(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	snap.AppPriorityOrder = []string{"com.older"}
	cands := []feature.Candidate{
		cand("com.older", 40, testNow),
		cand("com.newer", 40, testNow.Add(time.Second)),
	}

	winner := Select(cands, types.LimitPriority, snap)
	if statePackage(winner.State) != "com.older" {
		t.Fatalf("manual order overrides the recency tie-break, got %s", statePackage(winner.State))
	}
}

func TestSelectMostRecentIgnoresPriority(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	cands := []feature.Candidate{
		cand("com.high", 90, testNow),
		cand("com.low", 10, testNow.Add(time.Second)),
	}

	winner := Select(cands, types.LimitMostRecent, snap)
	if statePackage(winner.State) != "com.low" {
		t.Fatalf("most recent wins regardless of priority, got %s", statePackage(winner.State))
	}
}

func TestSelectFirstComeKeepsEarliest(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	cands := []feature.Candidate{
		cand("com.second", 40, testNow.Add(time.Second)),
		cand("com.first", 40, testNow),
	}

	winner := Select(cands, types.LimitFirstCome, snap)
	if statePackage(winner.State) != "com.first" {
		t.Fatalf("earliest equal-priority candidate keeps the slot, got %s", statePackage(winner.State))
	}
}

func TestSelectFirstComeStillYieldsToPriority(t *testing.T) {
	snap := prefs.DefaultSnapshot()
	cands := []feature.Candidate{
		cand("com.first", 10, testNow),
		cand("com.call", 100, testNow.Add(time.Second)),
	}

	winner := Select(cands, types.LimitFirstCome, snap)
	if statePackage(winner.State) != "com.call" {
		t.Fatalf("a higher-priority newcomer still wins, got %s", statePackage(winner.State))
	}
}
