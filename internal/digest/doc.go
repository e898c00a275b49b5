// Package digest maintains the append-only log of shown and
// suppressed notification events backing the daily summary feature.
//
// Writes are queued and flushed off the pipeline hot path; each row is
// independent and keyed, so a skipped write on teardown never corrupts
// the log. Reads are time-ranged queries aggregated into summary
// counts (top apps, suppressed counts by reason). A gzip-compressed
// JSON export is available for the diagnostics surface.
package digest
