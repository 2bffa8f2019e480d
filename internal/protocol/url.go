package protocol

import "net/url"

// Role identifies which WebSocket endpoint and action vocabulary a
// connection uses.
type Role string

const (
	RolePlayer Role = "player"
	RoleHost   Role = "host"
)

// PlayerURL builds the authenticated player endpoint:
// {base}/ws/player/{roomCode}/{playerID}?token={sessionToken}.
func PlayerURL(base, roomCode, playerID, token string) string {
	u := base + "/ws/player/" + url.PathEscape(roomCode) + "/" + url.PathEscape(playerID)
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

// HostURL builds the host/spectator endpoint: {base}/ws/host/{roomCode}.
// The host view carries no token; it is read/control-only, not an
// authenticated player.
func HostURL(base, roomCode string) string {
	return base + "/ws/host/" + url.PathEscape(roomCode)
}
