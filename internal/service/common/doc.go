// Package common holds helpers shared by the detector and the console.
//
// It provides a typed SurfaceService client with call timeouts and a helper
// that detects the current system actor (hostname/username) for alerts.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
