package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	"agora/internal/auth"
	"agora/internal/config"
	"agora/internal/messaging"
	"agora/internal/realtime"
	"agora/store/friendship"
	"agora/store/message"
	"agora/store/user"

	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

var addr = flag.String("addr", "", "http service address (overrides ADDR)")

// Global instances (in a real app, use dependency injection)
var (
	userStore       user.Store
	friendshipStore friendship.Store
	authenticator   *auth.Authenticator
	presence        realtime.Registry
	messenger       *messaging.Service
)

func main() {
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *addr != "" {
		cfg.Addr = *addr
	}

	// Database Connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing db: %v", err)
		}
	}()

	if err := db.Ping(); err != nil {
		// Just log warning, maybe DB isn't up yet (Docker)
		log.Printf("Warning: Database unreachable: %v", err)
	} else {
		log.Println("Connected to database")
	}

	userStore = user.NewSQLStore(db)
	friendshipStore = friendship.NewSQLStore(db)
	messageStore := message.NewSQLStore(db)

	authenticator = auth.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	presence = realtime.NewMemoryRegistry()
	hub := realtime.NewHub(presence)
	go hub.Run()

	messenger = messaging.NewService(messageStore, friendshipStore, hub)

	// API Endpoints
	http.HandleFunc("/api/register", handleRegister)
	http.HandleFunc("/api/login", handleLogin)
	http.HandleFunc("/api/messages", handleSendMessage)
	http.HandleFunc("/api/messages/unread/count", handleUnreadCount)
	http.HandleFunc("/api/messages/", handleConversation)
	http.HandleFunc("/api/friends", handleFriends)

	// WebSocket Endpoint
	http.Handle("/ws", realtime.NewHandler(hub, authenticator))

	// Health Check
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Printf("health check write error: %v", err)
		}
	})

	log.Printf("Server starting on %s", cfg.Addr)
	err = http.ListenAndServe(cfg.Addr, nil)
	if err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
