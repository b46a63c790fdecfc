package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
	// PublicKey is the base64 SPKI export of the user's RSA-OAEP public key.
	// Set once at registration; there is no rotation flow.
	PublicKey string `json:"public_key"`
}

// KeyPair holds both halves of an RSA-OAEP key pair, base64-encoded
// (SPKI for the public half, PKCS#8 for the private). The private half
// lives only on the owning client; the server never persists it.
type KeyPair struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Conversation is strictly pairwise: exactly two participants.
type Conversation struct {
	ID           int       `json:"id"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages,omitempty"`
}

// Message content is always ciphertext: the base64 RSA-OAEP envelope
// encrypted under the receiver's public key. Immutable after creation;
// removed only by the conversation cascade delete.
type Message struct {
	ID             int       `json:"id"`
	SenderID       int       `json:"sender_id"`
	ReceiverID     int       `json:"receiver_id"`
	ConversationID int       `json:"conversation_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
