// Package detector implements the fallguard-detector command, the producer
// side of the alert channel.
//
// The alert is parked in the mailbox file first. A running surface is then
// woken over gRPC; when no surface is running the alert waits for its next
// cold start.
package detector
