package store

import (
	"context"

	"whisperchat/internal/models"
)

// Store is the persistence contract the messaging core depends on. Message
// content crossing this boundary is always ciphertext; the store never
// holds plaintext.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByID(id int) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	SearchUsers(query string) ([]models.User, error)

	// Conversation operations. Conversations are strictly pairwise.
	CreatePairwise(userA, userB int) (*models.Conversation, error)
	GetConversation(id int) (*models.Conversation, error)
	ListByParticipant(userID int) ([]models.Conversation, error)
	// DeleteCascade removes the conversation and every message in it as one
	// transaction; no orphaned messages may remain.
	DeleteCascade(conversationID int) error

	// Message operations
	SaveMessage(ctx context.Context, msg *models.Message) error
	MessagesByConversation(conversationID int) ([]models.Message, error)
}
