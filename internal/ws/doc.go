// Package ws implements the realtime core of Live Collab sessions over
// WebSocket.
//
// The package implements:
//   - Client: one physical connection with an ordered reliable send path and
//     coalescing slots for perishable presence data
//   - Hub: per-session presence registry and broadcast router (participants,
//     colors, cursors, tools, chat sequencing and a bounded chat backlog
//     replayed to late joiners)
//   - HubManager: per-session hub index
//   - Handler: the connection protocol state machine
//     (Connecting -> AwaitingJoin -> Joined -> Closed)
//   - Service: lifecycle surface for admission checks and forced teardown
//
// Delivery semantics: joined, user_joined, user_left, chat and error are
// reliable and ordered per session; cursor_update and tool_update are
// best-effort, latest-wins per sender.
package ws
