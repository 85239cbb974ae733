// Package confirmation owns the lifecycle of the one alert in flight:
// Idle, then PendingConfirmation, then Resolved (Confirmed or Dismissed),
// then Idle again.
//
// The Machine is the only writer of the state. Observers subscribe and
// receive every published state; a slow observer loses the oldest states
// first. The emergency contact runs on the transition into a confirmed
// resolution, so it fires once per confirmed alert no matter how many
// times the user taps.
package confirmation
