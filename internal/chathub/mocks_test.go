package chathub_test

import (
	"dmchat/backend/internal/models"
)

// MockClient is a test double for the chathub.Client interface.
type MockClient struct {
	id       string
	userID   uint
	username string
	roomID   uint
	closed   bool

	// RecvChannel is where the hub's deliveries land.
	RecvChannel chan models.ServerEvent
}

func newMockClient(id string, userID uint, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		userID:      userID,
		username:    "user",
		RecvChannel: make(chan models.ServerEvent, buffer),
	}
}

func (c *MockClient) GetID() string       { return c.id }
func (c *MockClient) GetUserID() uint     { return c.userID }
func (c *MockClient) GetUsername() string { return c.username }
func (c *MockClient) GetRoomID() uint     { return c.roomID }
func (c *MockClient) SetRoomID(id uint)   { c.roomID = id }

func (c *MockClient) GetSendChannel() chan<- models.ServerEvent { return c.RecvChannel }

func (c *MockClient) Run()   {}
func (c *MockClient) Close() { c.closed = true }

// DrainEvents empties the receive channel for assertions.
func (c *MockClient) DrainEvents() []models.ServerEvent {
	var events []models.ServerEvent
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}
