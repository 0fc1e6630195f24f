// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"user-session-api/internal/config"
	"user-session-api/internal/db"
	"user-session-api/internal/security"
	userdomain "user-session-api/internal/user/domain"
	userrepo "user-session-api/internal/user/repository"
)

const (
	devUsername = "dev"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev user exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := userdomain.New(map[string]any{
		"username": devUsername,
		"password": passwordHash,
	})
	if err != nil {
		log.Fatalf("build dev user: %v", err)
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUsername, devPassword)
}
