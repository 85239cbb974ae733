// Package channel carries the "fall detected" signal from the detector to
// the surface.
//
// A raise lands in a depth-1 mailbox that survives process death and then
// wakes the surface out of band. If the surface is not running the alert
// waits in the mailbox until the next entry consumes it.
package channel
