package core

type SessionID string

// GroupID names a delivery group. Rooms use their room id as the group id;
// lobby subscribers share LobbyGroup.
type GroupID string

const LobbyGroup GroupID = "lobby"

// Transport abstracts the messaging layer the controller emits through.
// Owned by the adapter; the controller never touches a socket directly.
type Transport interface {
	EmitToSession(sid SessionID, event string, payload any)
	// EmitToGroup delivers to every session in the group, skipping exclude
	// when non-empty.
	EmitToGroup(group GroupID, event string, payload any, exclude SessionID)
	JoinGroup(sid SessionID, group GroupID)
}
