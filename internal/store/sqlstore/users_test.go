package sqlstore

import (
	"strings"
	"testing"

	"whisperchat/internal/apperr"
	"whisperchat/internal/models"
)

func TestCreateUser(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	user := createTestUser(t, "alice")
	if user.ID == 0 {
		t.Error("Expected non-zero user ID")
	}

	// Duplicate username
	err := testStore.CreateUser(&models.User{
		Username: "alice", Email: "other@example.com", Password: "x", PublicKey: "k",
	})
	if err == nil {
		t.Error("Expected error when creating duplicate user, got nil")
	}
}

func TestGetUserByEmail(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	created := createTestUser(t, "alice")

	user, err := testStore.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.ID != created.ID || user.PublicKey != "public-key-alice" {
		t.Errorf("Unexpected user: %+v", user)
	}

	_, err = testStore.GetUserByEmail("nobody@example.com")
	if err == nil {
		t.Fatal("Expected error for nonexistent user, got nil")
	}
	if !apperr.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestGetUserByID(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	created := createTestUser(t, "alice")

	user, err := testStore.GetUserByID(created.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Expected username 'alice', got '%s'", user.Username)
	}
}

func TestSearchUsers(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	createTestUser(t, "alice")
	createTestUser(t, "bob")
	createTestUser(t, "alex")

	users, err := testStore.SearchUsers("al")
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.PublicKey == "" {
			t.Errorf("Expected public key for %s", u.Username)
		}
		if !strings.Contains(u.Email, "*") {
			t.Errorf("Expected masked email, got %s", u.Email)
		}
	}
}
