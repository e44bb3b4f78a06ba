// Package inspect serves a live view of a reactive runtime over HTTP.
//
// Routes:
//
//	GET /state    current snapshot as JSON
//	GET /stats    reactive.Stats as JSON
//	GET /metrics  Prometheus exposition
//	GET /ws       WebSocket stream of snapshots
//	GET /healthz  liveness check
//
// Snapshots are produced by an effect, so every change to the state the
// snapshot function reads is pushed to WebSocket clients. The effect never
// blocks: when the publisher falls behind, only the newest snapshot is kept.
package inspect
