// Command authd runs the authentication HTTP server.
//
// Configuration comes from the environment (a .env file is loaded if
// present):
//
//	AUTHD_JWT_SECRET_KEY  secret for signing session tokens (required)
//	AUTHD_DATABASE_DSN    postgres DSN; falls back to in-memory stores
//	AUTHD_BASE_URL        public base URL used in reset links
//	PORT                  listen port, defaults to 8080
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sotkin/authd"
	"github.com/sotkin/authd/stores"
	gormstore "github.com/sotkin/authd/stores/gorm"
)

func init() {
	// Load environment variables from .env file.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
}

func main() {
	secret := os.Getenv("AUTHD_JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("AUTHD_JWT_SECRET_KEY is required")
	}

	baseURL := os.Getenv("AUTHD_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	userStore, resetStore := openStores()

	issuer := &authd.JWTIssuer{
		SecretKey: []byte(secret),
		Issuer:    "authd",
		Expiry:    authd.TokenExpirySession,
	}

	service := &authd.Service{
		Users:       userStore,
		Resets:      resetStore,
		Hasher:      &authd.BcryptHasher{},
		Tokens:      issuer,
		EmailSender: &authd.ConsoleEmailSender{},
		BaseURL:     baseURL,
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = authd.TokenExpirySession

	middleware := &authd.Middleware{
		Tokens:  issuer,
		Session: sessionManager,
	}
	middleware.EnsureReasonableDefaults()

	authHandlers := &authd.Handlers{
		Service:    service,
		Session:    sessionManager,
		Middleware: middleware,
	}

	router := mux.NewRouter()
	authHandlers.Register(router)

	loggedRouter := handlers.LoggingHandler(os.Stdout, sessionManager.LoadAndSave(router))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Handler:      loggedRouter,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on http://localhost%s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signals for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting gracefully.")
}

// openStores connects to postgres when a DSN is configured, otherwise runs
// against in-memory stores. The memory fallback loses all data on restart.
func openStores() (authd.UserStore, authd.ResetTokenStore) {
	dsn := os.Getenv("AUTHD_DATABASE_DSN")
	if dsn == "" {
		log.Println("AUTHD_DATABASE_DSN not set, using in-memory stores")
		memory := stores.NewMemoryStore()
		return memory, memory
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return gormstore.NewUserStore(db), gormstore.NewResetTokenStore(db)
}
