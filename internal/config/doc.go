// Package config defines the settings shared by the fallguard binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the surface gRPC address, the mailbox and store
// locations, timeouts, the emergency hook and the chat settings.
package config
