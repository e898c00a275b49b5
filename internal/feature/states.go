package feature

import (
	"strconv"
	"time"
)

// CallState covers both phases of a call island.
type CallState struct {
	Key      string
	Package  string
	Caller   string
	Incoming bool
	Since    time.Time
}

func (s CallState) NotificationKey() string { return s.Key }

func (s CallState) ContentSignature() string {
	phase := "ongoing"
	if s.Incoming {
		phase = "incoming"
	}
	return "call|" + phase + "|" + s.Caller
}

// AlarmState fires until dismissed or snoozed.
type AlarmState struct {
	Key     string
	Package string
	Label   string
	Since   time.Time
}

func (s AlarmState) NotificationKey() string  { return s.Key }
func (s AlarmState) ContentSignature() string { return "alarm|" + s.Label }

// TimerState renders a countdown or elapsed clock. The remaining time
// is derived from Base by the UI clock, not by re-ingestion, so the
// signature deliberately excludes wall-clock remainder.
type TimerState struct {
	Key     string
	Package string
	Label   string
	Base    time.Time
	Ringing bool
}

func (s TimerState) NotificationKey() string { return s.Key }

func (s TimerState) ContentSignature() string {
	phase := "counting"
	if s.Ringing {
		phase = "ringing"
	}
	return "timer|" + phase + "|" + s.Label + "|" + strconv.FormatInt(s.Base.UnixMilli(), 10)
}

// NavigationState carries the current maneuver.
type NavigationState struct {
	Key         string
	Package     string
	Instruction string
	Detail      string
}

func (s NavigationState) NotificationKey() string { return s.Key }

func (s NavigationState) ContentSignature() string {
	return "nav|" + s.Instruction + "|" + s.Detail
}

// MediaState mirrors the current playback chrome.
type MediaState struct {
	Key     string
	Package string
	Track   string
	Artist  string
}

func (s MediaState) NotificationKey() string  { return s.Key }
func (s MediaState) ContentSignature() string { return "media|" + s.Track + "|" + s.Artist }

// ProgressState merges successive progress updates by replacement.
// Max == 0 means indeterminate; Done marks the terminal update.
type ProgressState struct {
	Key      string
	Package  string
	Title    string
	Progress int
	Max      int
	Done     bool
}

func (s ProgressState) NotificationKey() string { return s.Key }

func (s ProgressState) ContentSignature() string {
	return "progress|" + s.Title + "|" + strconv.Itoa(s.Progress) + "/" + strconv.Itoa(s.Max)
}

// Terminal reports whether the download or task has finished.
func (s ProgressState) Terminal() bool { return s.Done }

// StandardState is the fallback for messages and plain notifications.
type StandardState struct {
	Key      string
	Package  string
	Title    string
	Text     string
	CanReply bool
	Message  bool
}

func (s StandardState) NotificationKey() string  { return s.Key }
func (s StandardState) ContentSignature() string { return "standard|" + s.Title + "|" + s.Text }
