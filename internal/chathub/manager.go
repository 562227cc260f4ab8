package chathub

import (
	"log"

	"dmchat/backend/internal/models"
)

// Broadcast is a request to fan an event out to every connection currently
// holding membership in a conversation room.
type Broadcast struct {
	ConversationID uint
	Event          models.ServerEvent
}

// Manager is the process-local room router. All membership state lives in
// its run loop; clients and their pumps talk to it exclusively through
// channels. Membership is rebuilt from fresh joins after any reconnect;
// nothing here is persisted or authoritative.
type Manager struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan Broadcast
}

func NewManager() *Manager {
	return &Manager{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan Broadcast, 64),
	}
}

// Run is the hub dispatcher. It only moves pointers between maps and
// channels; anything that can block on storage happens in the pumps, so one
// stalled connection never delays delivery to unrelated rooms.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client.GetID()] = client
			log.Printf("client %s connected (user %d)", client.GetID(), client.GetUserID())

		case client := <-m.UnregisterCh:
			if _, ok := m.Clients[client.GetID()]; ok {
				delete(m.Clients, client.GetID())
				client.Close()
				log.Printf("client %s disconnected (user %d)", client.GetID(), client.GetUserID())
			}

		case b := <-m.BroadcastCh:
			m.fanOut(b)
		}
	}
}

// fanOut delivers to every member of the room named in the broadcast. The
// send is non-blocking: a client whose buffer is full is dropped rather than
// allowed to stall the loop.
func (m *Manager) fanOut(b Broadcast) {
	for id, client := range m.Clients {
		if client.GetRoomID() != b.ConversationID {
			continue
		}
		select {
		case client.GetSendChannel() <- b.Event:
		default:
			delete(m.Clients, id)
			client.Close()
			log.Printf("WARN: dropped slow client %s (user %d)", id, client.GetUserID())
		}
	}
}
