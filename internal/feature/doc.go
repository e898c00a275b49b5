// Package feature holds the typed reducers, one per notification
// kind, and the registry that dispatches events to them.
//
// Each feature is an independent state machine over one kind (call,
// alarm, timer, navigation, media, progress, standard). A reducer is
// a pure function of (prev, event, now); returning nil removes the
// feature's island. The registry iterates a fixed ordered slice, so
// winner selection stays closed and exhaustively testable.
package feature
