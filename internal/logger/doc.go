// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration from settings (Configure, ParseLogLevel),
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Every component of the alert pipeline takes a context and logs through
// the logger stored in it, so surface, router and state machine messages
// carry the name and fields of the process that produced them.
package logger
