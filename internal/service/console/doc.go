// Package console implements the fallguard command: the user's view of the
// surface. It shows the confirmation state, answers it, reports permission
// results and edits the user's records.
package console
