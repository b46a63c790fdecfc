package sqlstore

import (
	"database/sql"

	"whisperchat/internal/apperr"
	"whisperchat/internal/models"
)

// CreatePairwise creates a conversation between exactly two users, or
// returns the existing one for that pair.
func (s *SQLStore) CreatePairwise(userA, userB int) (*models.Conversation, error) {
	if userA == userB {
		return nil, apperr.New(apperr.KindValidation, "cannot start a conversation with yourself")
	}

	if conv, err := s.findPairwise(userA, userB); err != nil {
		return nil, err
	} else if conv != nil {
		return conv, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "begin create conversation")
	}
	defer tx.Rollback()

	var id int
	query := s.rebind("INSERT INTO conversations DEFAULT VALUES RETURNING id")
	if err := tx.QueryRow(query).Scan(&id); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create conversation")
	}

	query = s.rebind("INSERT INTO participants (conversation_id, user_id) VALUES (?, ?)")
	for _, userID := range []int{userA, userB} {
		if _, err := tx.Exec(query, id, userID); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "add participant")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "commit create conversation")
	}

	return s.GetConversation(id)
}

func (s *SQLStore) findPairwise(userA, userB int) (*models.Conversation, error) {
	query := s.rebind(`
		SELECT p1.conversation_id
		FROM participants p1
		JOIN participants p2 ON p1.conversation_id = p2.conversation_id
		WHERE p1.user_id = ? AND p2.user_id = ?
		LIMIT 1
	`)
	var id int
	err := s.db.QueryRow(query, userA, userB).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "find conversation")
	}
	return s.GetConversation(id)
}

// GetConversation returns the conversation with its two participants.
func (s *SQLStore) GetConversation(id int) (*models.Conversation, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM conversations WHERE id = ?)")
	if err := s.db.QueryRow(query, id).Scan(&exists); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "query conversation")
	}
	if !exists {
		return nil, apperr.New(apperr.KindNotFound, "conversation not found")
	}

	participants, err := s.conversationParticipants(id)
	if err != nil {
		return nil, err
	}
	return &models.Conversation{ID: id, Participants: participants}, nil
}

// ListByParticipant returns every conversation the user is in, with
// participants and messages nested, messages in persistence order.
func (s *SQLStore) ListByParticipant(userID int) ([]models.Conversation, error) {
	query := s.rebind("SELECT conversation_id FROM participants WHERE user_id = ?")
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "list conversations")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scan conversation id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "list conversations")
	}

	var conversations []models.Conversation
	for _, id := range ids {
		participants, err := s.conversationParticipants(id)
		if err != nil {
			return nil, err
		}
		messages, err := s.MessagesByConversation(id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, models.Conversation{
			ID:           id,
			Participants: participants,
			Messages:     messages,
		})
	}
	return conversations, nil
}

func (s *SQLStore) conversationParticipants(conversationID int) ([]models.User, error) {
	query := s.rebind(`
		SELECT u.id, u.username, u.email, u.public_key
		FROM users u
		JOIN participants p ON u.id = p.user_id
		WHERE p.conversation_id = ?
		ORDER BY u.id
	`)
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "query participants")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PublicKey); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scan participant")
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// IsParticipant reports whether the user belongs to the conversation.
func (s *SQLStore) IsParticipant(conversationID, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id = ? AND user_id = ?)")
	err := s.db.QueryRow(query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, err, "query participant")
	}
	return exists, nil
}

// DeleteCascade removes the conversation, its participant rows and every
// message in it. All three go in one transaction: partial deletion can
// never leave orphaned messages behind.
func (s *SQLStore) DeleteCascade(conversationID int) error {
	if _, err := s.GetConversation(conversationID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "begin delete conversation")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM messages WHERE conversation_id = ?",
		"DELETE FROM participants WHERE conversation_id = ?",
		"DELETE FROM conversations WHERE id = ?",
	} {
		if _, err := tx.Exec(s.rebind(stmt), conversationID); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "delete conversation")
		}
	}

	return apperr.Wrap(apperr.KindInternal, tx.Commit(), "commit delete conversation")
}
