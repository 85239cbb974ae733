// Package surface is the user-facing process: it routes entries, owns the
// confirmation state machine and the permission gate, and mirrors the
// user's records. Everything that touches what the user sees runs on a
// single looper goroutine.
package surface
