// Package drawsync keeps the draw store in step with the lottery site.
//
// A sweep finds the lowest missing draw number, asks the Schedule which draw
// is the latest published one, and fetches every missing draw in between,
// one request per RequestDelay. Failures are counted; FailureThreshold
// consecutive failures end the sweep early. Failed draws get one retry pass.
// When anything was inserted, number metrics and pattern stats are rebuilt.
//
// Only one sweep runs at a time: concurrent callers in this process share one
// sweep, and a lease row in the store keeps other instances out. A caller
// that finds the lease taken waits for it to clear and reports
// AlreadyRunning.
package drawsync
