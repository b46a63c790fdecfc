package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"whisperchat/internal/apperr"
	"whisperchat/internal/middleware"
	"whisperchat/internal/store"
)

type ConversationHandler struct {
	Store store.Store
}

type CreateConversationRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

// Create pairs the caller with the recipient resolved by email.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RecipientEmail == "" {
		http.Error(w, "recipient_email is required", http.StatusBadRequest)
		return
	}

	recipient, err := h.Store.GetUserByEmail(req.RecipientEmail)
	if err != nil {
		if apperr.IsNotFound(err) {
			http.Error(w, "Recipient not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}

	conv, err := h.Store.CreatePairwise(userID, recipient.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(conv)
}

// List returns the caller's conversations with participants and messages
// nested. Message content stays ciphertext; decryption is the client's
// business.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversations, err := h.Store.ListByParticipant(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(conversations)
}

// Delete removes a conversation and all its messages atomically.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	if !h.requireParticipant(w, conversationID, userID) {
		return
	}

	if err := h.Store.DeleteCascade(conversationID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Conversation deleted successfully"})
}

// Messages returns one conversation's messages in persistence order.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	if !h.requireParticipant(w, conversationID, userID) {
		return
	}

	messages, err := h.Store.MessagesByConversation(conversationID)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(messages)
}

func (h *ConversationHandler) requireParticipant(w http.ResponseWriter, conversationID, userID int) bool {
	conv, err := h.Store.GetConversation(conversationID)
	if err != nil {
		writeError(w, err)
		return false
	}
	for _, u := range conv.Participants {
		if u.ID == userID {
			return true
		}
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
	return false
}

// writeError maps the error taxonomy to HTTP. Internal errors are logged
// and surfaced generically so callers never see persistence detail.
func writeError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.KindNotFound:
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperr.KindAuth:
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		log.Printf("handlers: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
