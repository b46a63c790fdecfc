package gateway

import (
	"encoding/json"

	"whisperchat/internal/models"
)

// The wire protocol is a closed set of tagged events. Anything outside this
// set, or a payload that fails to decode, is answered with an error event;
// it never terminates the connection.
const (
	// client -> server
	EventJoin        = "join"
	EventSendMessage = "sendMessage"

	// server -> client
	EventReceiveMessage = "receiveMessage"
	EventUserOnline     = "userOnline"
	EventUserOffline    = "userOffline"
	EventRoster         = "roster"
	EventError          = "error"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	Identity string `json:"identity"`
}

type SendMessagePayload struct {
	ConversationID    int    `json:"conversation_id"`
	Message           string `json:"message"` // ciphertext, base64
	SenderID          int    `json:"sender_id"`
	RecipientIdentity string `json:"recipient_identity"`
}

type PresencePayload struct {
	Identity string `json:"identity"`
}

type RosterPayload struct {
	Identities []string `json:"identities"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func mustEnvelope(eventType string, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(Envelope{Type: eventType, Payload: raw})
	return data
}

func receiveMessageEvent(msg *models.Message) []byte {
	return mustEnvelope(EventReceiveMessage, msg)
}

func presenceEvent(eventType, identity string) []byte {
	return mustEnvelope(eventType, PresencePayload{Identity: identity})
}

func rosterEvent(identities []string) []byte {
	return mustEnvelope(EventRoster, RosterPayload{Identities: identities})
}

func errorEvent(msg string) []byte {
	return mustEnvelope(EventError, ErrorPayload{Message: msg})
}
