package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"whisperchat/internal/auth"
	"whisperchat/internal/models"
	"whisperchat/internal/store/sqlstore"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return &AuthHandler{Store: store, Signer: auth.NewSigner([]byte("test-secret"))}
}

func TestRegister(t *testing.T) {
	handler := newAuthHandler(t)

	req := RegisterRequest{
		Username:  "testuser",
		Email:     "testuser@example.com",
		Password:  "password123",
		PublicKey: "base64-spki-public-key",
	}
	body, _ := json.Marshal(req)

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Register).ServeHTTP(rr, httptest.NewRequest("POST", "/register", bytes.NewBuffer(body)))

	if status := rr.Code; status != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusCreated)
	}

	var created models.User
	json.Unmarshal(rr.Body.Bytes(), &created)
	if created.PublicKey != "base64-spki-public-key" {
		t.Errorf("Expected public key persisted, got %q", created.PublicKey)
	}

	// Test duplicate user
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Register).ServeHTTP(rr, httptest.NewRequest("POST", "/register", bytes.NewBuffer(body)))

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code for duplicate user: got %v want %v",
			status, http.StatusConflict)
	}
}

func TestRegisterValidation(t *testing.T) {
	handler := newAuthHandler(t)

	cases := map[string]RegisterRequest{
		"missing public key": {Username: "testuser", Email: "t@example.com", Password: "password123"},
		"short username":     {Username: "ab", Email: "t@example.com", Password: "password123", PublicKey: "k"},
		"short password":     {Username: "testuser", Email: "t@example.com", Password: "12345", PublicKey: "k"},
		"missing email":      {Username: "testuser", Password: "password123", PublicKey: "k"},
	}

	for name, reqBody := range cases {
		body, _ := json.Marshal(reqBody)
		rr := httptest.NewRecorder()
		http.HandlerFunc(handler.Register).ServeHTTP(rr, httptest.NewRequest("POST", "/register", bytes.NewBuffer(body)))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %v want %v", name, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestLogin(t *testing.T) {
	handler := newAuthHandler(t)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	handler.Store.CreateUser(&models.User{
		Username:  "testuser",
		Email:     "testuser@example.com",
		Password:  string(hashedPassword),
		PublicKey: "k",
	})

	creds := Credentials{Email: "testuser@example.com", Password: "password123"}
	body, _ := json.Marshal(creds)

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, httptest.NewRequest("POST", "/login", bytes.NewBuffer(body)))

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Expected session cookie to be set")
	}
	if _, err := handler.Signer.Verify(cookies[0].Value); err != nil {
		t.Errorf("Session cookie does not verify: %v", err)
	}

	// Wrong password
	body, _ = json.Marshal(Credentials{Email: "testuser@example.com", Password: "wrong"})
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, httptest.NewRequest("POST", "/login", bytes.NewBuffer(body)))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %v", rr.Code)
	}
}
