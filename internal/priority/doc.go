// Package priority maintains the per-app learned spam score and the
// throttle decisions derived from it.
//
// The score is a weighted sum over the last three calendar days
// (today weighted heaviest), recomputed lazily on read. Fast
// dismissals push the score down, taps to open push it up. Quiet
// hours bias the short-term threshold down while weakening the
// long-term penalty. Burst control is content-agnostic and checked
// before the learned throttle.
//
// The engine never blocks on I/O: reads hit an in-memory cache
// hydrated asynchronously from storage, and a cache miss fails open.
package priority
