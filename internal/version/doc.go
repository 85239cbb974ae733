// Package version exposes build metadata of the fall-guard binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X at build time.
package version
