package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dmchat/backend/internal/api/handler"
	"dmchat/backend/internal/auth"
	"dmchat/backend/internal/chathub"
	"dmchat/backend/internal/config"
	"dmchat/backend/internal/service"
	"dmchat/backend/internal/storage"
)

func setupStorage(cfg *config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		// Unique-index violations must surface as gorm.ErrDuplicatedKey;
		// registration and conversation creation rely on it.
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	s := storage.NewService(db)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete.")
	return s
}

func main() {
	log.Println("Starting dmchat backend...")

	cfg := config.Load()
	store := setupStorage(cfg)

	users := service.NewUserService(store, cfg.BcryptCost)
	chat := service.NewChatService(store)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	hub := chathub.NewManager()
	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, users, chat, tokens)
	h.Routes(r)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("API+Socket running → http://localhost:%s", cfg.Port)
	log.Fatal(server.ListenAndServe())
}
