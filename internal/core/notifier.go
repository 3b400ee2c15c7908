package core

import "github.com/dkeye/Backstage/internal/domain"

// Event names on the signal wire. Inbound events are dispatched by name
// to the session controller's handlers; outbound events carry controller
// notifications back to the clients.
const (
	EventJoinRoom          = "joinRoom"
	EventSpeakRequest      = "speakRequest"
	EventSpeakAnswer       = "speakAnswer"
	EventDisconnect        = "disconnect"
	EventLobbyUpdated      = "lobbyUpdated"
	EventUserConnected     = "userConnected"
	EventUserDisconnected  = "userDisconnected"
	EventUpgradePermission = "upgradeUserPermission"
)

// Notifier delivers controller notifications to connected clients.
// Implemented by the websocket adapter; the core never sees transport
// details, only connection ids. Delivery is best effort and must not
// block the caller.
type Notifier interface {
	// ToConnection sends an event to a single connection.
	ToConnection(id domain.ConnectionID, event string, payload any)
	// ToConnections fans an event out to the listed connections.
	ToConnections(ids []domain.ConnectionID, event string, payload any)
	// ToLobby broadcasts an event to every lobby subscriber.
	ToLobby(event string, payload any)
}
