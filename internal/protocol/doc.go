// Package protocol defines the wire format shared with the game server.
//
// Inbound messages are JSON objects tagged with a "type" field; outbound
// actions are JSON objects tagged with an "action" field. The package also
// holds the client-side view of game state (snapshot, roster, pending
// decisions) and the role-specific WebSocket URL builders.
package protocol
