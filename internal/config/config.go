package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPort     = "8080"
	defaultTokenTTL = 7 * 24 * time.Hour
	devSecret       = "dev_secret_change_me"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   []byte
	TokenTTL    time.Duration
	BcryptCost  int
}

// Load reads .env (if present) and assembles the configuration.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}

	cfg := &Config{
		Port:        getEnv("PORT", defaultPort),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=dmchat port=5432 sslmode=disable"),
		JWTSecret:   []byte(getEnv("JWT_SECRET", devSecret)),
		TokenTTL:    defaultTokenTTL,
		BcryptCost:  bcrypt.DefaultCost,
	}

	if string(cfg.JWTSecret) == devSecret {
		log.Println("Warning: JWT_SECRET not set, using development secret")
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid TOKEN_TTL %q: %v", v, err)
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			log.Fatalf("Invalid BCRYPT_COST %q", v)
		}
		cfg.BcryptCost = cost
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
