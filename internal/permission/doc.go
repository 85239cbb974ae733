// Package permission sequences the OS permission requests that gate the
// optional subsystems: notifications, voice commands and emergency calling.
//
// Requests are fire-and-forget; the OS answer comes back through OnResult.
// A denial is final for the lifetime of the process. Nothing here is on the
// path of alert confirmation.
package permission
