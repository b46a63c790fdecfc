package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"whisperchat/internal/auth"
	"whisperchat/internal/delivery"
	"whisperchat/internal/gateway"
	"whisperchat/internal/handlers"
	"whisperchat/internal/middleware"
	"whisperchat/internal/presence"
	"whisperchat/internal/store/sqlstore"
)

var (
	addr   = flag.String("addr", ":8080", "http service address")
	driver = flag.String("driver", "sqlite3", "database driver (sqlite3 or postgres)")
	dsn    = flag.String("dsn", "whisperchat.db", "database connection string")
	secret = flag.String("secret", "", "session cookie signing secret (or WHISPERCHAT_SECRET)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	key := *secret
	if key == "" {
		key = os.Getenv("WHISPERCHAT_SECRET")
	}
	if key == "" {
		log.Fatal("a cookie signing secret is required (-secret or WHISPERCHAT_SECRET)")
	}
	signer := auth.NewSigner([]byte(key))

	st, err := sqlstore.New(*driver, *dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	registry := presence.NewRegistry()
	gw := gateway.New(registry)
	router := delivery.NewRouter(st, registry, gw)
	gw.AttachSender(router)
	go gw.Run()

	authHandler := &handlers.AuthHandler{Store: st, Signer: signer}
	convHandler := &handlers.ConversationHandler{Store: st}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.Auth(signer))
	authed.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	authed.HandleFunc("/conversations", convHandler.Create).Methods("POST")
	authed.HandleFunc("/conversations", convHandler.List).Methods("GET")
	authed.HandleFunc("/conversations/{id}", convHandler.Delete).Methods("DELETE")
	authed.HandleFunc("/conversations/{id}/messages", convHandler.Messages).Methods("GET")

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(signer, r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := st.GetUserByID(userID)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		gw.ServeWS(w, r, user.ID, user.Email)
	})

	srv := &http.Server{Addr: *addr, Handler: r}

	go func() {
		log.Println("Starting server on", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	gw.Shutdown()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
