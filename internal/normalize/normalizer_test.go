package normalize

import (
	"testing"
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

func TestEventMapsFields(t *testing.T) {
	now := time.Now()
	raw := Raw{
		Package:        "com.example.chat",
		Title:          "Alice",
		Text:           "hello",
		PostTimeMs:     now.Add(-time.Second).UnixMilli(),
		Category:       "msg",
		ConversationID: "conv-1",
		MessageID:      "m-1",
		CanReply:       true,
		Importance:     3,
		Origin:         "post",
	}

	ev, degraded := Event(raw, now)
	if degraded {
		t.Error("well-formed payload should not be degraded")
	}
	if ev.SourceApp != "com.example.chat" {
		t.Errorf("unexpected source app: %s", ev.SourceApp)
	}
	if ev.Category != types.CategoryMessage {
		t.Errorf("expected message category, got %s", ev.Category)
	}
	if ev.Origin != types.OriginPost {
		t.Errorf("expected post origin, got %s", ev.Origin)
	}
	if ev.Key() != "com.example.chat/conv-1" {
		t.Errorf("unexpected key: %s", ev.Key())
	}
}

func TestEventNeverFails(t *testing.T) {
	now := time.Now()

	// Entirely empty payload still produces a usable event
	ev, degraded := Event(Raw{}, now)
	if !degraded {
		t.Error("empty payload should report degradation")
	}
	if ev.Timestamp != now {
		t.Error("missing post time should default to now")
	}
	if ev.Category != types.CategoryStandard {
		t.Errorf("expected standard fallback, got %s", ev.Category)
	}
	if ev.Origin != types.OriginPost {
		t.Errorf("expected post fallback, got %s", ev.Origin)
	}
}

func TestCategoryInference(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		want types.Category
	}{
		{"native call", Raw{Category: "call"}, types.CategoryCall},
		{"native transport", Raw{Category: "transport"}, types.CategoryMedia},
		{"progress shape", Raw{MaxProgress: 100, Progress: 10}, types.CategoryProgress},
		{"reply shape", Raw{CanReply: true}, types.CategoryMessage},
		{"unknown", Raw{Category: "weird"}, types.CategoryStandard},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, _ := Event(tc.raw, time.Now())
			if ev.Category != tc.want {
				t.Errorf("expected %s, got %s", tc.want, ev.Category)
			}
		})
	}
}

func TestKeyFallbacks(t *testing.T) {
	ev := types.NotificationEvent{SourceApp: "pkg", MessageID: "m1"}
	if ev.Key() != "pkg/m1" {
		t.Errorf("unexpected key: %s", ev.Key())
	}

	ev = types.NotificationEvent{SourceApp: "pkg", GroupKey: "g1"}
	if ev.Key() != "pkg/g1" {
		t.Errorf("unexpected key: %s", ev.Key())
	}

	ev = types.NotificationEvent{SourceApp: "pkg"}
	if ev.Key() != "pkg" {
		t.Errorf("unexpected key: %s", ev.Key())
	}
}
