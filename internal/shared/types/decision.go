package types

// Reason is the closed taxonomy of suppression reason codes
type Reason string

const (
	ReasonCooldown         Reason = "COOLDOWN"
	ReasonMuted            Reason = "MUTED"
	ReasonBlocked          Reason = "BLOCKED"
	ReasonContextScreenOff Reason = "CONTEXT_SCREEN_OFF"
	ReasonFocus            Reason = "FOCUS"
	ReasonPreset           Reason = "PRESET"
	ReasonPriorityThrottle Reason = "PRIORITY_THROTTLE"
	ReasonSpoiler          Reason = "SPOILER"
)

// SuppressionDecision is produced exactly once per ingested event.
// A denial is never silent to the system: the reason is digest-logged
// before the event is dropped.
type SuppressionDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

// Allow returns a passing decision
func Allow() SuppressionDecision {
	return SuppressionDecision{Allowed: true}
}

// Deny returns a reason-coded veto
func Deny(r Reason) SuppressionDecision {
	return SuppressionDecision{Allowed: false, Reason: r}
}
