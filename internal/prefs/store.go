package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/coni/hyperisle/internal/logging"
)

// Store owns the preference file and its observable snapshot flow.
type Store struct {
	path   string
	logger *logging.Logger

	mu      sync.RWMutex
	current Snapshot
	subs    []chan Snapshot

	watcher *fsnotify.Watcher
}

// NewStore creates a store reading from path. The file is loaded
// immediately; a missing file falls back to defaults.
func NewStore(path string, logger *logging.Logger) *Store {
	s := &Store{
		path:    path,
		logger:  logger.Component("prefs"),
		current: DefaultSnapshot(),
	}
	if err := s.Reload(); err != nil {
		s.logger.Warn("preference file unavailable, using defaults",
			zap.String("path", path), zap.Error(err))
	}
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel receiving every snapshot change. The
// channel is buffered; slow consumers drop intermediate snapshots.
func (s *Store) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	s.subs = append(s.subs, ch)
	return ch
}

// Reload re-reads the preference file and notifies subscribers.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read prefs: %w", err)
	}

	snap := DefaultSnapshot()
	if err := toml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse prefs: %w", err)
	}

	s.publish(snap)
	return nil
}

// Update applies a mutation to the current snapshot, persists it, and
// notifies subscribers. Used for user actions like mute and block.
func (s *Store) Update(mutate func(*Snapshot)) error {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	mutate(&snap)

	data, err := toml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	s.publish(snap)
	return nil
}

// MuteApp adds a package to the muted set, stamping the gesture time.
// The mute expires one cooldown window later.
func (s *Store) MuteApp(pkg string) error {
	return s.MuteAppAt(pkg, time.Now())
}

// MuteAppAt is MuteApp with an explicit gesture time for callers that
// carry their own clock.
func (s *Store) MuteAppAt(pkg string, at time.Time) error {
	return s.Update(func(snap *Snapshot) {
		if !snap.IsMuted(pkg) {
			snap.MutedApps = append(snap.MutedApps, pkg)
		}
		if snap.MutedAt == nil {
			snap.MutedAt = map[string]time.Time{}
		}
		snap.MutedAt[pkg] = at
	})
}

// BlockApp adds a package to the blocked set.
func (s *Store) BlockApp(pkg string) error {
	return s.Update(func(snap *Snapshot) {
		if !snap.IsBlocked(pkg) {
			snap.BlockedApps = append(snap.BlockedApps, pkg)
		}
	})
}

// Watch reloads the preference file on filesystem changes until ctx
// is canceled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	s.watcher = watcher

	// Watch the directory; editors replace files rather than write in place
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch prefs dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != s.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("prefs reload failed", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("prefs watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (s *Store) publish(snap Snapshot) {
	s.mu.Lock()
	s.current = snap
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Drop; subscriber reads Current on next cycle anyway
		}
	}
}
