package websocket

import "github.com/rs/zerolog/log"

type targetedMessage struct {
	username string
	client   *Client // set for a reply to a single connection
	message  []byte
}

// Hub maintains the set of active clients and routes messages to the clients
// of one user. All maps are owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of usernames to the set of that user's clients.
	subscriptions map[string]map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	targeted chan targetedMessage
	done     chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		targeted:      make(chan targetedMessage, 64),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Str("username", client.Username).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("username", client.Username).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case m := <-h.targeted:
			if m.client != nil {
				if h.clients[m.client] {
					h.deliver(m.client, m.message)
				}
				continue
			}
			for client := range h.subscriptions[m.username] {
				h.deliver(client, m.message)
			}
		}
	}
}

// Done is closed once Stop has been called.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Stop ends the Run loop and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastTo queues a message for every client of username. It never blocks
// the caller for long: when the queue is full the message is dropped.
func (h *Hub) BroadcastTo(username string, message []byte) {
	h.enqueue(targetedMessage{username: username, message: message})
}

// Reply queues a message for a single client. Clients already unregistered
// are skipped, so a reply can never hit a closed Send channel.
func (h *Hub) Reply(client *Client, message []byte) {
	h.enqueue(targetedMessage{username: client.Username, client: client, message: message})
}

func (h *Hub) enqueue(m targetedMessage) {
	select {
	case h.targeted <- m:
	case <-h.done:
	default:
		log.Warn().Str("username", m.username).Msg("Websocket broadcast queue full, dropping message")
	}
}

// deliver hands message to client, dropping clients too slow to keep up.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.Username] == nil {
		h.subscriptions[client.Username] = make(map[*Client]bool)
	}
	h.subscriptions[client.Username][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.Username]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.Username)
		}
	}
}
