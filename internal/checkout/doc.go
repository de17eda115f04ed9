// Package checkout implements the sequential scan-and-adjust state machine.
//
// A Checkout is bound to one immutable scheme and owns its own pending
// items and running total. Scans are processed strictly in arrival order in
// the caller's goroutine; there is no parallelism within a session and no
// shared mutable state across sessions. A process serving concurrent
// transactions must use one Checkout per transaction; the scheme itself may
// be shared read-only.
//
// Every scan and rule firing is stamped with a monotonic sequence number
// from the session's logical clock, so notification streams and audit
// trails are strictly ordered without wall-clock timestamps.
package checkout
