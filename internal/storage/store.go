package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Store wraps the sqlite database holding persisted engine state.
type Store struct {
	db   *sql.DB
	path string
}

// ScoreEvent is one weighted dismiss/open sample feeding the decay score.
type ScoreEvent struct {
	Package string
	At      time.Time
	Weight  float64
}

// Open creates or opens the engine database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		package TEXT PRIMARY KEY,
		score REAL NOT NULL DEFAULT 0,
		last_dismiss_ms INTEGER NOT NULL DEFAULT 0,
		last_open_ms INTEGER NOT NULL DEFAULT 0,
		throttled_until_ms INTEGER NOT NULL DEFAULT 0,
		profile TEXT NOT NULL DEFAULT 'NORMAL'
	);

	CREATE TABLE IF NOT EXISTS score_events (
		package TEXT NOT NULL,
		at_ms INTEGER NOT NULL,
		weight REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_score_events_package ON score_events(package);
	CREATE INDEX IF NOT EXISTS idx_score_events_at ON score_events(at_ms);

	CREATE TABLE IF NOT EXISTS cooldowns (
		key TEXT PRIMARY KEY,
		package TEXT NOT NULL,
		type TEXT NOT NULL,
		dismissed_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS digest (
		id TEXT PRIMARY KEY,
		package TEXT NOT NULL,
		post_time_ms INTEGER NOT NULL,
		reason TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_digest_post_time ON digest(post_time_ms);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveProfile upserts one priority profile.
func (s *Store) SaveProfile(ctx context.Context, p types.AppPriorityProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (package, score, last_dismiss_ms, last_open_ms, throttled_until_ms, profile)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(package) DO UPDATE SET
			score = excluded.score,
			last_dismiss_ms = excluded.last_dismiss_ms,
			last_open_ms = excluded.last_open_ms,
			throttled_until_ms = excluded.throttled_until_ms,
			profile = excluded.profile`,
		p.Package, p.Score, msOrZero(p.LastDismiss), msOrZero(p.LastOpen),
		msOrZero(p.ThrottledUntil), string(p.Profile))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Package, err)
	}
	return nil
}

// LoadProfiles reads all persisted profiles.
func (s *Store) LoadProfiles(ctx context.Context) ([]types.AppPriorityProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package, score, last_dismiss_ms, last_open_ms, throttled_until_ms, profile FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	var out []types.AppPriorityProfile
	for rows.Next() {
		var p types.AppPriorityProfile
		var dismissMs, openMs, throttledMs int64
		var profile string
		if err := rows.Scan(&p.Package, &p.Score, &dismissMs, &openMs, &throttledMs, &profile); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.LastDismiss = timeOrZero(dismissMs)
		p.LastOpen = timeOrZero(openMs)
		p.ThrottledUntil = timeOrZero(throttledMs)
		p.Profile = types.ThrottleProfile(profile)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AppendScoreEvent records one weighted sample.
func (s *Store) AppendScoreEvent(ctx context.Context, ev ScoreEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_events (package, at_ms, weight) VALUES (?, ?, ?)`,
		ev.Package, ev.At.UnixMilli(), ev.Weight)
	if err != nil {
		return fmt.Errorf("append score event: %w", err)
	}
	return nil
}

// LoadScoreEvents reads samples newer than since, grouped by package.
func (s *Store) LoadScoreEvents(ctx context.Context, since time.Time) (map[string][]ScoreEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package, at_ms, weight FROM score_events WHERE at_ms >= ? ORDER BY at_ms`,
		since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("load score events: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]ScoreEvent)
	for rows.Next() {
		var ev ScoreEvent
		var atMs int64
		if err := rows.Scan(&ev.Package, &atMs, &ev.Weight); err != nil {
			return nil, fmt.Errorf("scan score event: %w", err)
		}
		ev.At = time.UnixMilli(atMs)
		out[ev.Package] = append(out[ev.Package], ev)
	}
	return out, rows.Err()
}

// PruneScoreEvents drops samples older than before. Samples outside
// the 3-day decay window no longer affect any score.
func (s *Store) PruneScoreEvents(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM score_events WHERE at_ms < ?`, before.UnixMilli())
	if err != nil {
		return fmt.Errorf("prune score events: %w", err)
	}
	return nil
}

// SaveCooldown upserts one cooldown record, keyed by pkg:type.
func (s *Store) SaveCooldown(ctx context.Context, rec types.CooldownRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cooldowns (key, package, type, dismissed_at_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET dismissed_at_ms = excluded.dismissed_at_ms`,
		rec.Key(), rec.PackageName, string(rec.NotificationType), rec.LastDismissedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save cooldown %s: %w", rec.Key(), err)
	}
	return nil
}

// LoadCooldowns reads all persisted cooldown records.
func (s *Store) LoadCooldowns(ctx context.Context) ([]types.CooldownRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT package, type, dismissed_at_ms FROM cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("load cooldowns: %w", err)
	}
	defer rows.Close()

	var out []types.CooldownRecord
	for rows.Next() {
		var rec types.CooldownRecord
		var cat string
		var atMs int64
		if err := rows.Scan(&rec.PackageName, &cat, &atMs); err != nil {
			return nil, fmt.Errorf("scan cooldown: %w", err)
		}
		rec.NotificationType = types.Category(cat)
		rec.LastDismissedAt = time.UnixMilli(atMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AppendDigest appends one digest row. Replays of the same id are
// harmless by key.
func (s *Store) AppendDigest(ctx context.Context, item types.DigestItem) error {
	var reason any
	if item.Reason != "" {
		reason = string(item.Reason)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO digest (id, package, post_time_ms, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		item.ID, item.PackageName, item.PostTime.UnixMilli(), reason)
	if err != nil {
		return fmt.Errorf("append digest: %w", err)
	}
	return nil
}

// QueryDigest returns digest rows within [from, to), newest first.
func (s *Store) QueryDigest(ctx context.Context, from, to time.Time) ([]types.DigestItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, package, post_time_ms, reason FROM digest
		WHERE post_time_ms >= ? AND post_time_ms < ?
		ORDER BY post_time_ms DESC`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query digest: %w", err)
	}
	defer rows.Close()

	var out []types.DigestItem
	for rows.Next() {
		var item types.DigestItem
		var postMs int64
		var reason sql.NullString
		if err := rows.Scan(&item.ID, &item.PackageName, &postMs, &reason); err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}
		item.PostTime = time.UnixMilli(postMs)
		if reason.Valid {
			item.Reason = types.Reason(reason.String)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func msOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timeOrZero(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
