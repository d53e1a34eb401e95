package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agora/internal/auth"
	"agora/internal/messaging"
	"agora/store/user"
)

func handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	newUser := &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := userStore.Create(r.Context(), newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("Error creating user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]interface{}{"id": newUser.ID})
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	u, err := userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := authenticator.GenerateToken(u.ID, u.Name)
	if err != nil {
		http.Error(w, "Failed to create token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

// handleSendMessage accepts a direct message and runs it through the
// delivery pipeline. The canonical persisted message comes back to the
// sender so its client can reconcile the optimistic copy.
func handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ReceiverID int64  `json:"receiverId"`
		Content    string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := messenger.Send(r.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, messaging.ErrNotFriends):
			http.Error(w, "You can only message friends", http.StatusForbidden)
		case errors.Is(err, messaging.ErrEmptyContent):
			http.Error(w, "Message content is required", http.StatusBadRequest)
		default:
			log.Printf("Error sending message: %v", err)
			http.Error(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, msg)
}

// handleConversation serves GET /api/messages/{userId}: the message
// history with that user, which also marks the fetched direction read.
func handleConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	otherID, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/messages/"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	msgs, err := messenger.Conversation(r.Context(), userID, otherID)
	if err != nil {
		if errors.Is(err, messaging.ErrNotFriends) {
			http.Error(w, "You can only view messages from friends", http.StatusForbidden)
			return
		}
		log.Printf("Error fetching conversation: %v", err)
		http.Error(w, "Failed to fetch conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, msgs)
}

func handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := messenger.UnreadCount(r.Context(), userID)
	if err != nil {
		log.Printf("Error counting unread messages: %v", err)
		http.Error(w, "Failed to count unread messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int64{"count": count})
}

// handleFriends returns the caller's accepted friends with their
// current presence merged in from the registry.
func handleFriends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	friends, err := friendshipStore.ListFriends(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing friends: %v", err)
		http.Error(w, "Failed to list friends", http.StatusInternalServerError)
		return
	}

	type friendStatus struct {
		ID        int64   `json:"id"`
		Name      string  `json:"name"`
		AvatarURL *string `json:"avatarUrl"`
		IsOnline  bool    `json:"isOnline"`
	}

	out := make([]friendStatus, 0, len(friends))
	for _, f := range friends {
		out = append(out, friendStatus{
			ID:        f.UserID,
			Name:      f.Name,
			AvatarURL: f.AvatarURL,
			IsOnline:  presence.IsOnline(f.UserID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, out)
}

func authenticateRequest(r *http.Request) (int64, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return 0, auth.ErrInvalidToken
	}

	claims, err := authenticator.VerifyToken(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response write error: %v", err)
	}
}
