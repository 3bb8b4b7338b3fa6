// Package debugserver exposes a finished snapshot over HTTP.
//
// Routes:
//   - GET  /healthz                 liveness check
//   - GET  /snapshot                diagnostic listing (?format=text|outline|json)
//   - GET  /snapshot/elements/{id}  one element, 404 for ids outside the arena
//   - POST /snapshot/rebuild        re-runs the configured build pass
//   - GET  /snapshot/ws             websocket; JSON listing on connect and after each rebuild
//   - GET  /metrics                 Prometheus metrics
//
// Reads hold a shared lock and rebuilds an exclusive one, so readers never
// observe a snapshot that is being built.
package debugserver
