// Package mailbox implements the depth-1 slot that carries a raised alert
// from the detector to the surface.
//
// The FileRepository survives process death and can be shared by several
// processes: Put replaces the slot with an atomic rename and Take claims it
// with another rename, so exactly one consumer receives a given payload.
// The MemoryRepository offers the same contract inside one process.
package mailbox
