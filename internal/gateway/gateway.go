// Package gateway owns the websocket side of the system: connection
// lifecycle, the tagged event protocol, presence bookkeeping and targeted
// delivery pushes. It is an explicitly constructed instance with a
// Run/Shutdown lifecycle; there is no package-level state.
package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"whisperchat/internal/models"
	"whisperchat/internal/presence"
)

// Sender is the send orchestration the gateway dispatches sendMessage
// events to. Implemented by delivery.Router.
type Sender interface {
	Send(ctx context.Context, conversationID, senderID int, recipientIdentity, ciphertext string) (*models.Message, error)
}

type Gateway struct {
	presence *presence.Registry
	sender   Sender
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
	byID    map[string]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

func New(reg *presence.Registry) *Gateway {
	return &Gateway{
		presence: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:    make(map[*Client]bool),
		byID:       make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// AttachSender wires the send path in. Must be called before Run; split
// from New because the router in turn needs the gateway as its notifier.
func (g *Gateway) AttachSender(s Sender) { g.sender = s }

func (g *Gateway) Run() {
	for {
		select {
		case c := <-g.register:
			g.mu.Lock()
			g.clients[c] = true
			g.byID[c.id] = c
			g.mu.Unlock()

		case c := <-g.unregister:
			g.drop(c)
			// Exact removal: a no-op if this connection was already
			// superseded by a re-join on another connection.
			if identity, ok := g.presence.Disconnect(c.id); ok {
				g.broadcast(presenceEvent(EventUserOffline, identity))
			}

		case <-g.done:
			// Close the transports and let the pumps unwind themselves;
			// closing send channels here could race an in-flight dispatch.
			g.mu.Lock()
			for c := range g.clients {
				delete(g.clients, c)
				delete(g.byID, c.id)
				c.conn.Close()
			}
			g.mu.Unlock()
			close(g.stopped)
			return
		}
	}
}

// Shutdown stops the hub loop and closes every client's outbound queue.
func (g *Gateway) Shutdown() {
	g.stopOnce.Do(func() { close(g.done) })
	<-g.stopped
}

func (g *Gateway) drop(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.clients[c]; ok {
		delete(g.clients, c)
		delete(g.byID, c.id)
		close(c.send)
	}
}

// handleJoin registers the connection's identity with presence, sends the
// joiner the current roster, and announces them to everyone.
func (g *Gateway) handleJoin(c *Client) {
	if prev, replaced := g.presence.Join(c.identity, c.id); replaced {
		log.Printf("gateway: %s re-joined, replacing connection %s", c.identity, prev)
	}
	c.trySend(rosterEvent(g.presence.Identities()))
	g.broadcast(presenceEvent(EventUserOnline, c.identity))
}

// Deliver pushes a persisted message to one connection only. Implements
// delivery.Notifier: best-effort, at-most-once, no retry. The read lock is
// held across the send; drop closes the channel under the write lock, so a
// concurrent disconnect cannot close it out from under us.
func (g *Gateway) Deliver(connID string, msg *models.Message) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.byID[connID]
	if !ok {
		return false
	}
	return c.trySend(receiveMessageEvent(msg))
}

// broadcast queues an event for every connected client. A client whose
// buffer is full misses the event; presence changes are advisory and the
// roster event on join resynchronizes.
func (g *Gateway) broadcast(data []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for c := range g.clients {
		if !c.trySend(data) {
			log.Printf("gateway: dropping broadcast for slow connection %s", c.id)
		}
	}
}

// ServeWS upgrades an authenticated request into a gateway connection and
// starts its pumps. identity is the caller's own, resolved from the session
// by the HTTP layer; a join event may only claim it.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request, userID int, identity string) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: upgrade failed: %v", err)
		return
	}

	c := &Client{
		id:       uuid.NewString(),
		userID:   userID,
		identity: identity,
		gw:       g,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}

	select {
	case g.register <- c:
	case <-g.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
