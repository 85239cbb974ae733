// Package permission holds the records the permission gate keeps for each
// OS-level permission kind.
package permission
