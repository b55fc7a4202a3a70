// Package timer provides the pausable game clock used by sessions.
//
// A Timer runs in one of two modes fixed at construction:
//   - Countdown: a fixed budget runs down to zero; Remaining and IsExpired apply
//   - Elapsed: a free-running clock; Elapsed applies
//
// Querying the wrong mode returns ErrModeMismatch rather than a fallback value.
//
// State Machine:
//
//	Ready   --Start-->  Running
//	Running --Pause-->  Paused
//	Paused  --Resume--> Running
//	Running|Paused --Stop--> Stopped
//	Stopped --Start-->  Running (prior accumulation cleared)
//
// Any other call is silently ignored. Reset returns to Ready from anywhere.
//
// Expiry Checks:
//
// Watch schedules a periodic callback on its own goroutine; Stop and Reset
// cancel it. The callback is where a session polls for countdown expiry.
//
//	t := timer.New(timer.Countdown, 60*time.Second)
//	t.Start()
//	t.Watch(250*time.Millisecond, sess.Tick)
package timer
