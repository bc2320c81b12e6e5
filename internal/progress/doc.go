// Package progress fans draw synchronization events out to subscribers.
//
// Each subscriber owns a Queue that grows on demand up to a limit and then
// drops its oldest events, so a slow websocket client never stalls a sweep.
package progress
