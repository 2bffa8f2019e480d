// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Maintains at most one live WebSocket per (room, identity) pair
//   - Retries unexpected losses with exponential backoff (capped)
//   - Never retries intentional or clean closures
//   - Guards shared state against close events from superseded sockets
//   - Reports status transitions and a single terminal failure upward
package connection
