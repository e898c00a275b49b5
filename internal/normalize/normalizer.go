package normalize

import (
	"strings"
	"time"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Raw is the native notification payload as forwarded by the listener
// plumbing. Field names follow the platform extras they are lifted from.
type Raw struct {
	Package        string `json:"package"`
	Title          string `json:"title"`
	Text           string `json:"text"`
	BigText        string `json:"big_text"`
	PostTimeMs     int64  `json:"post_time_ms"`
	Category       string `json:"category"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	GroupKey       string `json:"group_key"`
	CanReply       bool   `json:"can_reply"`
	HasActions     bool   `json:"has_actions"`
	IsGroup        bool   `json:"is_group"`
	Ongoing        bool   `json:"ongoing"`
	Importance     int    `json:"importance"`
	Progress       int    `json:"progress"`
	MaxProgress    int    `json:"max_progress"`
	RouteHint      string `json:"route_hint"`
	Origin         string `json:"origin"`
}

// nativeCategories maps platform category strings to engine categories.
var nativeCategories = map[string]types.Category{
	"call":       types.CategoryCall,
	"alarm":      types.CategoryAlarm,
	"timer":      types.CategoryTimer,
	"stopwatch":  types.CategoryTimer,
	"navigation": types.CategoryNavigation,
	"transport":  types.CategoryMedia,
	"media":      types.CategoryMedia,
	"progress":   types.CategoryProgress,
	"msg":        types.CategoryMessage,
	"email":      types.CategoryMessage,
}

// Event maps a raw payload to a canonical NotificationEvent. The second
// return reports whether any required field was degraded, for metrics
// only; the event is always usable.
func Event(raw Raw, now time.Time) (types.NotificationEvent, bool) {
	degraded := false

	pkg := strings.TrimSpace(raw.Package)
	if pkg == "" {
		degraded = true
	}

	ts := now
	if raw.PostTimeMs > 0 {
		ts = time.UnixMilli(raw.PostTimeMs)
	} else {
		degraded = true
	}

	origin := types.Origin(strings.ToLower(raw.Origin))
	switch origin {
	case types.OriginPost, types.OriginUpdate, types.OriginRemove:
	default:
		origin = types.OriginPost
		degraded = true
	}

	return types.NotificationEvent{
		SourceApp:      pkg,
		Title:          raw.Title,
		Text:           raw.Text,
		BigText:        raw.BigText,
		Timestamp:      ts,
		ConversationID: raw.ConversationID,
		MessageID:      raw.MessageID,
		CanReply:       raw.CanReply,
		HasActions:     raw.HasActions,
		Importance:     raw.Importance,
		Category:       category(raw),
		IsGroup:        raw.IsGroup,
		GroupKey:       raw.GroupKey,
		RouteHint:      routeHint(raw.RouteHint),
		Origin:         origin,
		Progress:       raw.Progress,
		MaxProgress:    raw.MaxProgress,
		Ongoing:        raw.Ongoing,
	}, degraded
}

// category resolves the engine category, inferring from payload shape
// when the native category is missing or unknown.
func category(raw Raw) types.Category {
	if cat, ok := nativeCategories[strings.ToLower(raw.Category)]; ok {
		return cat
	}

	switch {
	case raw.MaxProgress > 0 || raw.Progress > 0:
		return types.CategoryProgress
	case raw.ConversationID != "" || raw.CanReply:
		return types.CategoryMessage
	default:
		return types.CategoryStandard
	}
}

func routeHint(hint string) types.Route {
	switch types.Route(strings.ToLower(hint)) {
	case types.RouteOverlay:
		return types.RouteOverlay
	case types.RouteNative:
		return types.RouteNative
	case types.RouteNone:
		return types.RouteNone
	default:
		return ""
	}
}
