// Package health defines the records the assistant keeps about its user:
// the profile with the emergency contact and the medication list.
package health
