package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"whisperchat/internal/apperr"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// sendBuffer decouples each connection's outbound queue from the hub:
	// a slow consumer fills its own buffer and gets dropped instead of
	// stalling everyone else.
	sendBuffer = 256
)

// Client is one websocket connection. userID and identity both come from
// the session at upgrade time; a join event has to match them.
type Client struct {
	id       string
	userID   int
	identity string
	gw       *Gateway
	conn     *websocket.Conn
	send     chan []byte
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.gw.unregister <- c:
		case <-c.gw.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("gateway: read error: %v", err)
			}
			break
		}
		c.dispatch(data)
	}
}

// dispatch validates one inbound envelope and routes it. Failures are
// answered on this connection only.
func (c *Client) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.trySend(errorEvent("malformed event"))
		return
	}

	switch env.Type {
	case EventJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil || p.Identity == "" {
			c.trySend(errorEvent("join requires an identity"))
			return
		}
		if p.Identity != c.identity {
			c.trySend(errorEvent("identity does not match session"))
			return
		}
		c.gw.handleJoin(c)

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.trySend(errorEvent("malformed sendMessage payload"))
			return
		}
		if p.SenderID != c.userID {
			c.trySend(errorEvent("sender does not match session"))
			return
		}
		msg, err := c.gw.sender.Send(context.Background(), p.ConversationID, p.SenderID, p.RecipientIdentity, p.Message)
		if err != nil {
			c.trySend(errorEvent(publicMessage(err)))
			return
		}
		// Echo the persisted record to the sender so its view carries the
		// authoritative id and timestamp.
		c.trySend(receiveMessageEvent(msg))

	default:
		c.trySend(errorEvent("unknown event type"))
	}
}

// publicMessage maps an error to what the client may see. Internal detail
// stays in the server log.
func publicMessage(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindAuth:
		return err.Error()
	default:
		log.Printf("gateway: send failed: %v", err)
		return "internal server error"
	}
}

// trySend queues an event for this connection, dropping it if the buffer
// is full.
func (c *Client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
