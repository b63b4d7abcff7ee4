// Package monitor serves the read-only status surface of a running
// provisioning service on its own listener.
//
// # Endpoints
//
//	GET /status   JSON snapshot of the state machine
//	GET /events   WebSocket stream of state changes
//	GET /metrics  Prometheus metrics (when a metrics handler is configured)
//
// # Event stream
//
// Every WebSocket client first receives a "snapshot" message, followed by a
// "transition" message for each state change:
//
//	{"type":"snapshot","snapshot":{"state":"Provisioning","mode":"access-point",...}}
//	{"type":"transition","transition":{"from":"Provisioning","to":"Connecting",...}}
//
// Slow clients whose send buffer fills are disconnected rather than allowed
// to block the state machine. The server sends pings every 54 seconds and
// drops clients that stop answering.
//
// The monitor never exposes stored secrets or a connection retry count.
package monitor
