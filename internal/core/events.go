package core

// Wire event names, shared with the browser client.
const (
	EventLobbyUpdated          = "LOBBY_UPDATED"
	EventUserConnected         = "USER_CONNECTED"
	EventUserDisconnected      = "USER_DISCONNECTED"
	EventJoinRoom              = "JOIN_ROOM"
	EventSpeakRequest          = "SPEAK_REQUEST"
	EventSpeakAnswer           = "SPEAK_ANSWER"
	EventUpgradeUserPermission = "UPGRADE_USER_PERMISSION"
)
