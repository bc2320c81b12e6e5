// Package server exposes the engine and the draw synchronizer over HTTP.
//
// Public routes live under /api/v1. Routes under /admin require an
// HMAC-signed request (see package auth). Sync progress is streamed to
// admins over a websocket at /admin/sync/stream.
//
// Every JSON reply uses the envelopes in package response: {"data": ...}
// on success and {"error", "message", "code", "reason"} otherwise. A full
// heuristic pool answers 503 with reason "busy".
package server
