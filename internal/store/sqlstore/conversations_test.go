package sqlstore

import (
	"context"
	"testing"

	"whisperchat/internal/apperr"
	"whisperchat/internal/models"
)

func TestCreatePairwise(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	conv, err := testStore.CreatePairwise(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("CreatePairwise failed: %v", err)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("Expected exactly 2 participants, got %d", len(conv.Participants))
	}

	// The same pair gets the same conversation back.
	again, err := testStore.CreatePairwise(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("Second CreatePairwise failed: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("Expected existing conversation %d, got %d", conv.ID, again.ID)
	}

	if _, err := testStore.CreatePairwise(alice.ID, alice.ID); err == nil {
		t.Error("Expected error for a conversation with oneself")
	}
}

func TestGetConversationNotFound(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	_, err := testStore.GetConversation(999)
	if err == nil {
		t.Fatal("Expected error for missing conversation")
	}
	if !apperr.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func saveTestMessage(t *testing.T, conversationID, senderID, receiverID int, content string) *models.Message {
	t.Helper()
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
	}
	if err := testStore.SaveMessage(context.Background(), msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	return msg
}

func TestSaveMessageAssignsIDAndTimestamp(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conv, _ := testStore.CreatePairwise(alice.ID, bob.ID)

	msg := saveTestMessage(t, conv.ID, alice.ID, bob.ID, "Y2lwaGVydGV4dA==")
	if msg.ID == 0 {
		t.Error("Expected non-zero message ID")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestMessagesPersistenceOrder(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conv, _ := testStore.CreatePairwise(alice.ID, bob.ID)

	for _, content := range []string{"first", "second", "third"} {
		saveTestMessage(t, conv.ID, alice.ID, bob.ID, content)
	}

	messages, err := testStore.MessagesByConversation(conv.ID)
	if err != nil {
		t.Fatalf("MessagesByConversation failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Content != want {
			t.Errorf("Message %d: got %q want %q", i, messages[i].Content, want)
		}
	}
}

func TestListByParticipantNestsMessages(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	carol := createTestUser(t, "carol")

	convAB, _ := testStore.CreatePairwise(alice.ID, bob.ID)
	testStore.CreatePairwise(bob.ID, carol.ID)
	saveTestMessage(t, convAB.ID, alice.ID, bob.ID, "hello bob")

	conversations, err := testStore.ListByParticipant(alice.ID)
	if err != nil {
		t.Fatalf("ListByParticipant failed: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("Expected 1 conversation for alice, got %d", len(conversations))
	}
	if len(conversations[0].Messages) != 1 || conversations[0].Messages[0].Content != "hello bob" {
		t.Errorf("Expected nested message, got %+v", conversations[0].Messages)
	}

	conversations, _ = testStore.ListByParticipant(bob.ID)
	if len(conversations) != 2 {
		t.Errorf("Expected 2 conversations for bob, got %d", len(conversations))
	}
}

func TestDeleteCascade(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	conv, _ := testStore.CreatePairwise(alice.ID, bob.ID)
	saveTestMessage(t, conv.ID, alice.ID, bob.ID, "doomed")
	saveTestMessage(t, conv.ID, bob.ID, alice.ID, "also doomed")

	if err := testStore.DeleteCascade(conv.ID); err != nil {
		t.Fatalf("DeleteCascade failed: %v", err)
	}

	if _, err := testStore.GetConversation(conv.ID); !apperr.IsNotFound(err) {
		t.Errorf("Expected conversation gone, got %v", err)
	}

	messages, err := testStore.MessagesByConversation(conv.ID)
	if err != nil {
		t.Fatalf("MessagesByConversation failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected no messages after cascade, got %d", len(messages))
	}

	if err := testStore.DeleteCascade(conv.ID); !apperr.IsNotFound(err) {
		t.Errorf("Expected not-found deleting twice, got %v", err)
	}
}
