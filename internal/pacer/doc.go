// Package pacer adds a bounded, shared delay to the heuristic strategies.
//
// At most MaxConcurrent callers sleep at once and at most QueueSize more may
// wait for a slot; anyone beyond that gets ErrBusy immediately. The delay is
// chosen once per time bucket so callers arriving together wait the same
// amount.
package pacer
