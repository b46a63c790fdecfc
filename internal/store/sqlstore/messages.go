package sqlstore

import (
	"context"
	"time"

	"whisperchat/internal/apperr"
	"whisperchat/internal/models"
)

// SaveMessage persists a message and fills in its id and timestamp. Content
// arrives as ciphertext; the store treats it as an opaque string.
func (s *SQLStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	msg.Timestamp = time.Now().UTC()
	query := s.rebind(`
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query,
		msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp,
	).Scan(&msg.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "save message")
	}
	return nil
}

// MessagesByConversation returns the conversation's messages in persistence
// order.
func (s *SQLStore) MessagesByConversation(conversationID int) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, conversation_id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY id ASC
	`)
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "query messages")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Timestamp); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scan message")
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
