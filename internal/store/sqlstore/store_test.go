package sqlstore

import (
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"whisperchat/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

func createTestUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username:  name,
		Email:     fmt.Sprintf("%s@example.com", name),
		Password:  "hashed",
		PublicKey: "public-key-" + name,
	}
	if err := testStore.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return user
}
