package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without invoking the call while the breaker is
// tripped.
var ErrOpen = errors.New("circuit open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures trip and recovery behavior.
type Settings struct {
	// Threshold is the consecutive-failure count that trips the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// OnStateChange is invoked outside the lock on every transition.
	OnStateChange func(from, to State)
}

// Breaker fails fast after consecutive errors. One probe call is
// admitted per cooldown; success closes the breaker, failure re-opens
// it.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker.
func New(settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{settings: settings}
}

// State reports the current state, advancing open to half-open when
// the cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked(time.Now())
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked(time.Now()) {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	now := time.Now()
	state := b.currentLocked(now)
	b.probing = false

	var transition func()
	switch {
	case success:
		b.failures = 0
		if state != StateClosed {
			transition = b.setLocked(StateClosed, now)
		}
	case state == StateHalfOpen:
		transition = b.setLocked(StateOpen, now)
	default:
		b.failures++
		if b.failures >= b.settings.Threshold && state == StateClosed {
			transition = b.setLocked(StateOpen, now)
		}
	}
	b.mu.Unlock()

	if transition != nil {
		transition()
	}
}

func (b *Breaker) currentLocked(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.state = StateHalfOpen
	}
	return b.state
}

// setLocked changes state and returns the deferred notification so
// OnStateChange runs outside the lock.
func (b *Breaker) setLocked(state State, now time.Time) func() {
	from := b.state
	b.state = state
	if state == StateOpen {
		b.openedAt = now
		b.failures = 0
	}

	if b.settings.OnStateChange == nil || from == state {
		return nil
	}
	return func() { b.settings.OnStateChange(from, state) }
}
