package types

import "time"

// ThrottleProfile biases how quickly an app trips the learned throttle
type ThrottleProfile string

const (
	ProfileNormal  ThrottleProfile = "NORMAL"
	ProfileLenient ThrottleProfile = "LENIENT"
	ProfileStrict  ThrottleProfile = "STRICT"
)

// AppPriorityProfile is the per-package learned record. Owned by the
// priority engine; mutated only through its API; persisted to survive
// process restarts.
type AppPriorityProfile struct {
	Package        string          `json:"package"`
	Score          float64         `json:"score"`
	LastDismiss    time.Time       `json:"last_dismiss"`
	LastOpen       time.Time       `json:"last_open"`
	ThrottledUntil time.Time       `json:"throttled_until,omitempty"`
	Profile        ThrottleProfile `json:"profile"`
}

// CooldownRecord is written on dismiss and read on the next ingestion
// of the same package and type.
type CooldownRecord struct {
	PackageName      string    `json:"package_name"`
	NotificationType Category  `json:"notification_type"`
	LastDismissedAt  time.Time `json:"last_dismissed_at"`
}

// Key returns the "pkg:type" cooldown map key
func (r CooldownRecord) Key() string {
	return r.PackageName + ":" + string(r.NotificationType)
}

// CooldownKey builds the "pkg:type" key without a record
func CooldownKey(pkg string, category Category) string {
	return pkg + ":" + string(category)
}

// DigestItem is one append-only log row for the daily summary.
// Reason is empty for events that reached arbitration.
type DigestItem struct {
	ID          string    `json:"id"`
	PackageName string    `json:"package_name"`
	PostTime    time.Time `json:"post_time"`
	Reason      Reason    `json:"reason,omitempty"`
}
