// Package prefs owns the user preference surface consumed by the
// suppression pipeline and arbitration.
//
// Preferences live in a TOML file and are exposed as an observable
// flow: the pipeline reads an immutable Snapshot per event, and a
// fsnotify watcher reloads the file on change, pushing the new
// snapshot to subscribers. Context preset bundles (MEETING, DRIVING,
// HEADPHONES) are loaded from a separate YAML file.
//
// The hot path never touches disk; it reads the cached snapshot only.
package prefs
