package chathub

import "dmchat/backend/internal/models"

// Client is one live, authenticated connection. It abstracts the underlying
// transport so the hub can manage connections uniformly.
type Client interface {
	// GetID returns the connection id. A user with several open tabs holds
	// several clients, each with its own id.
	GetID() string
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() uint
	// GetUsername returns the authenticated user's handle.
	GetUsername() string

	// GetRoomID returns the conversation room the client currently occupies,
	// or zero when it has not joined one. Membership is a delivery address
	// only; it is never consulted for authorization.
	GetRoomID() uint
	// SetRoomID moves the client into a conversation room, replacing any
	// previous membership.
	SetRoomID(uint)

	// GetSendChannel returns the channel the hub delivers events through.
	GetSendChannel() chan<- models.ServerEvent

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the client down; safe to call more than once.
	Close()
}
