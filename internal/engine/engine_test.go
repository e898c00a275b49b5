package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/coni/hyperisle/internal/infrastructure/config"
	"github.com/coni/hyperisle/internal/logging"
	"github.com/coni/hyperisle/internal/prefs"
	"github.com/coni/hyperisle/internal/priority"
	"github.com/coni/hyperisle/internal/route"
	"github.com/coni/hyperisle/internal/shared/types"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type memSink struct {
	rows []types.DigestItem
}

func (s *memSink) Record(pkg string, postTime time.Time, reason types.Reason) {
	s.rows = append(s.rows, types.DigestItem{PackageName: pkg, PostTime: postTime, Reason: reason})
}

type fakeOverlay struct {
	rendered []string
	tornDown []string
}

func (f *fakeOverlay) Render(isl *types.ActiveIsland) { f.rendered = append(f.rendered, isl.ID) }
func (f *fakeOverlay) Teardown(id string)             { f.tornDown = append(f.tornDown, id) }

// harness drives the pipeline synchronously by calling dispatch
// directly, so every assertion sees a settled state.
type harness struct {
	engine  *Engine
	overlay *fakeOverlay
	sink    *memSink
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.NewDevelopment()
	cfg := config.Default().Engine

	h := &harness{
		overlay: &fakeOverlay{},
		sink:    &memSink{},
		now:     testNow,
	}
	clock := func() time.Time { return h.now }

	prefsStore := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.toml"), logger)
	prio := priority.NewEngine(cfg, nil, logger, priority.WithClock(clock))
	dispatcher := route.NewDispatcher(h.overlay, nil, route.NoopActions(), nil, logger)

	h.engine = New(Deps{
		Config:     cfg,
		Logger:     logger,
		Prefs:      prefsStore,
		Presets:    prefs.DefaultPresets(),
		Priority:   prio,
		Digest:     h.sink,
		Dispatcher: dispatcher,
		Clock:      clock,
	})
	return h
}

func (h *harness) ingest(ev types.NotificationEvent) {
	h.engine.dispatch(context.Background(), message{event: &ev})
}

func (h *harness) act(a types.UserAction) {
	h.engine.dispatch(context.Background(), message{action: &a})
}

func (h *harness) setContext(cs types.ContextState) {
	h.engine.dispatch(context.Background(), message{context: &cs})
}

func event(pkg string, cat types.Category, msgID string, at time.Time) types.NotificationEvent {
	return types.NotificationEvent{
		SourceApp: pkg,
		Category:  cat,
		MessageID: msgID,
		Title:     "title",
		Text:      "text",
		Timestamp: at,
		Origin:    types.OriginPost,
	}
}

func TestEventBecomesIsland(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))

	cur := h.engine.CurrentIsland()
	if cur == nil || cur.FeatureID != "standard" {
		t.Fatalf("expected a standard island, got %+v", cur)
	}
	if len(h.overlay.rendered) != 1 {
		t.Fatalf("expected one overlay render, got %d", len(h.overlay.rendered))
	}
	// Accepted events are digest-logged with no reason.
	if len(h.sink.rows) != 1 || h.sink.rows[0].Reason != "" {
		t.Fatalf("expected one shown digest row, got %+v", h.sink.rows)
	}
}

func TestIncomingCallPreempts(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))
	h.now = h.now.Add(200 * time.Millisecond)
	h.ingest(event("com.dialer", types.CategoryCall, "c1", h.now))

	cur := h.engine.CurrentIsland()
	if cur == nil || cur.FeatureID != "call" {
		t.Fatalf("incoming call must win within one cycle, got %+v", cur)
	}
}

func TestOutrankedEventStillCounts(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.dialer", types.CategoryCall, "c1", h.now))
	h.now = h.now.Add(200 * time.Millisecond)
	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))

	cur := h.engine.CurrentIsland()
	if cur == nil || cur.FeatureID != "call" {
		t.Fatalf("call must keep the slot, got %+v", cur)
	}
	// The chat event was outranked, not suppressed: two shown rows.
	if len(h.sink.rows) != 2 {
		t.Fatalf("expected 2 digest rows, got %d", len(h.sink.rows))
	}
	for _, row := range h.sink.rows {
		if row.Reason != "" {
			t.Fatalf("outranked events carry no suppression reason, got %+v", row)
		}
	}
}

func TestMutedAppRendersNothing(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.prefsStore.MuteAppAt("com.example.chat", h.now); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		h.now = h.now.Add(time.Second)
		h.ingest(event("com.example.chat", types.CategoryMessage, "m", h.now))
	}

	if h.engine.CurrentIsland() != nil {
		t.Fatal("muted app must render nothing")
	}
	if len(h.overlay.rendered) != 0 {
		t.Fatal("overlay must stay untouched")
	}
	if len(h.sink.rows) != 3 {
		t.Fatalf("expected 3 digest rows, got %d", len(h.sink.rows))
	}
	for _, row := range h.sink.rows {
		if row.Reason != types.ReasonMuted {
			t.Fatalf("expected MUTED rows, got %+v", row)
		}
	}
}

func TestDismissStartsCooldown(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))
	h.now = h.now.Add(5 * time.Second)
	h.act(types.UserAction{Kind: types.ActionDismiss, Package: "com.chat", At: h.now})

	if h.engine.CurrentIsland() != nil {
		t.Fatal("dismiss must empty the slot")
	}
	if len(h.overlay.tornDown) != 1 {
		t.Fatalf("expected one teardown, got %d", len(h.overlay.tornDown))
	}

	// Same pkg:type inside the cooldown window is suppressed.
	h.now = h.now.Add(10 * time.Second)
	h.ingest(event("com.chat", types.CategoryMessage, "m2", h.now))
	if h.engine.CurrentIsland() != nil {
		t.Fatal("event inside cooldown must not render")
	}
	last := h.sink.rows[len(h.sink.rows)-1]
	if last.Reason != types.ReasonCooldown {
		t.Fatalf("expected COOLDOWN row, got %+v", last)
	}

	// At the window edge it renders again.
	h.now = h.now.Add(20 * time.Second)
	h.ingest(event("com.chat", types.CategoryMessage, "m3", h.now))
	if h.engine.CurrentIsland() == nil {
		t.Fatal("event after cooldown must render")
	}
}

func TestRemoveFreesIsland(t *testing.T) {
	h := newHarness(t)

	ev := event("com.chat", types.CategoryMessage, "m1", h.now)
	h.ingest(ev)

	ev.Origin = types.OriginRemove
	ev.Timestamp = h.now.Add(2 * time.Second)
	h.now = ev.Timestamp
	h.ingest(ev)

	if h.engine.CurrentIsland() != nil {
		t.Fatal("removal must complete the island")
	}
	if len(h.overlay.tornDown) != 1 {
		t.Fatalf("expected one teardown, got %d", len(h.overlay.tornDown))
	}
}

func TestUnrelatedRemovalKeepsIsland(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))

	gone := event("com.other", types.CategoryMessage, "x9", h.now.Add(2*time.Second))
	gone.Origin = types.OriginRemove
	h.now = gone.Timestamp
	h.ingest(gone)

	cur := h.engine.CurrentIsland()
	if cur == nil || cur.State.NotificationKey() != "com.chat/m1" {
		t.Fatalf("removal of another key must leave the island alone, got %+v", cur)
	}
	if len(h.overlay.tornDown) != 0 {
		t.Fatalf("expected no teardown, got %d", len(h.overlay.tornDown))
	}
}

func TestDownloadCompletesAtMax(t *testing.T) {
	h := newHarness(t)

	ev := event("com.files", types.CategoryProgress, "dl1", h.now)
	ev.Progress = 50
	ev.MaxProgress = 100
	h.ingest(ev)
	if h.engine.CurrentIsland() == nil {
		t.Fatal("download must render")
	}

	ev.Origin = types.OriginUpdate
	ev.Progress = 100
	ev.Timestamp = h.now.Add(5 * time.Second)
	h.now = ev.Timestamp
	h.ingest(ev)

	if h.engine.CurrentIsland() != nil {
		t.Fatal("finished download must complete the island")
	}
}

func TestScreenOffSuppresses(t *testing.T) {
	h := newHarness(t)
	h.setContext(types.ContextState{ScreenOn: false})

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))
	if h.engine.CurrentIsland() != nil {
		t.Fatal("screen-off message must be suppressed")
	}
	if h.sink.rows[0].Reason != types.ReasonContextScreenOff {
		t.Fatalf("expected CONTEXT_SCREEN_OFF, got %+v", h.sink.rows[0])
	}

	// Calls pass the default screen-off allow-set.
	h.ingest(event("com.dialer", types.CategoryCall, "c1", h.now))
	if h.engine.CurrentIsland() == nil {
		t.Fatal("call must pass screen-off")
	}
}

func TestReplyBlocksThenReleases(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.chat", types.CategoryMessage, "m1", h.now))
	h.act(types.UserAction{Kind: types.ActionReply, Package: "com.chat"})

	// Mid-reply even a call holds.
	h.now = h.now.Add(2 * time.Second)
	h.ingest(event("com.dialer", types.CategoryCall, "c1", h.now))
	if cur := h.engine.CurrentIsland(); cur == nil || cur.FeatureID != "standard" {
		t.Fatalf("mid-reply the message must keep the slot, got %+v", cur)
	}

	// Sending the reply releases the slot; the live call wins next.
	h.act(types.UserAction{Kind: types.ActionReply, Package: "com.chat", ReplyText: "on my way"})
	h.now = h.now.Add(time.Second)
	h.ingest(event("com.dialer", types.CategoryCall, "c1", h.now))
	if cur := h.engine.CurrentIsland(); cur == nil || cur.FeatureID != "call" {
		t.Fatalf("after reply the call must preempt, got %+v", cur)
	}
}

func TestBlockActionSuppressesFutureEvents(t *testing.T) {
	h := newHarness(t)

	h.ingest(event("com.spam", types.CategoryStandard, "s1", h.now))
	h.act(types.UserAction{Kind: types.ActionBlock, Package: "com.spam", At: h.now})

	if h.engine.CurrentIsland() != nil {
		t.Fatal("blocking must tear the island down")
	}

	h.now = h.now.Add(time.Minute)
	h.ingest(event("com.spam", types.CategoryStandard, "s2", h.now))
	last := h.sink.rows[len(h.sink.rows)-1]
	if last.Reason != types.ReasonBlocked {
		t.Fatalf("expected BLOCKED, got %+v", last)
	}
}

func TestStartCloseLeaksNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(t)
	h.engine.Start(context.Background())

	if !h.engine.Ingest(event("com.chat", types.CategoryMessage, "m1", testNow)) {
		t.Fatal("ingest before close must succeed")
	}
	h.engine.Close()

	if h.engine.Ingest(event("com.chat", types.CategoryMessage, "m2", testNow)) {
		t.Fatal("ingest after close must fail")
	}
}
