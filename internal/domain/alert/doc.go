// Package alert contains the domain types of the fall alert pipeline.
//
// It defines Event (the immutable "fall detected" signal), Actor (the host
// and user that raised it) and State (the confirmation lifecycle of the one
// alert in flight), with Clone helpers to avoid leaking internal references.
package alert
