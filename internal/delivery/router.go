// Package delivery orchestrates the send path: validate, persist, then push
// to the recipient's live connection if there is one.
package delivery

import (
	"context"
	"log"
	"time"

	"whisperchat/internal/apperr"
	"whisperchat/internal/models"
	"whisperchat/internal/presence"
	"whisperchat/internal/store"
)

// Notifier pushes a persisted message to one specific connection. The
// gateway implements it. Push is best-effort: a false return means the
// connection could not take the event, and the router does not retry.
type Notifier interface {
	Deliver(connID string, msg *models.Message) bool
}

// persistTimeout bounds the persistence call so a stalled store surfaces as
// an internal error instead of hanging the sender's connection.
const persistTimeout = 5 * time.Second

type Router struct {
	store    store.Store
	presence *presence.Registry
	notifier Notifier
}

func NewRouter(st store.Store, reg *presence.Registry, n Notifier) *Router {
	return &Router{store: st, presence: reg, notifier: n}
}

// Send validates the conversation and recipient, persists the ciphertext,
// and — only after persistence has succeeded — pushes the message to the
// recipient's live connection, if any. An offline recipient gets nothing
// pushed; they pick the message up on their next conversation fetch.
// Delivery is at-most-once and never broadcast.
func (r *Router) Send(ctx context.Context, conversationID, senderID int, recipientIdentity, ciphertext string) (*models.Message, error) {
	if ciphertext == "" {
		return nil, apperr.New(apperr.KindValidation, "message is required")
	}

	conv, err := r.store.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}

	recipient, err := r.store.GetUserByEmail(recipientIdentity)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.New(apperr.KindNotFound, "recipient not found")
		}
		return nil, err
	}

	if !participant(conv, senderID) || !participant(conv, recipient.ID) {
		return nil, apperr.New(apperr.KindValidation, "sender and recipient must both be in the conversation")
	}

	msg := &models.Message{
		SenderID:       senderID,
		ReceiverID:     recipient.ID,
		ConversationID: conversationID,
		Content:        ciphertext,
	}

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := r.store.SaveMessage(pctx, msg); err != nil {
		if pctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindInternal, pctx.Err(), "persist message timed out")
		}
		return nil, err
	}

	// Persisted; from here on the send has succeeded regardless of
	// whether the push lands.
	if connID, online := r.presence.Lookup(recipientIdentity); online {
		if !r.notifier.Deliver(connID, msg) {
			log.Printf("delivery: push to %s dropped (conn %s)", recipientIdentity, connID)
		}
	}

	return msg, nil
}

func participant(conv *models.Conversation, userID int) bool {
	for _, u := range conv.Participants {
		if u.ID == userID {
			return true
		}
	}
	return false
}
