// seed inserts a development credential for local testing. Run via go run ./cmd/seed.
// Idempotent: skips the insert if the dev username already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"devicesession/backend/internal/config"
	"devicesession/backend/internal/db"
	"devicesession/backend/internal/identity/domain"
	"devicesession/backend/internal/identity/repository"
	"devicesession/backend/internal/security"
)

const (
	devUsername = "dev"
	devEmail    = "dev@example.com"
)

func main() {
	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "password123"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer database.Close()
	repo := repository.NewPostgresRepository(database)

	existing, err := repo.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed: lookup %s: %v", devUsername, err)
	}
	if existing != nil {
		log.Printf("seed: credential %s already exists (id %s), skipping", devUsername, existing.ID)
		return
	}

	salt, digest, err := security.NewHasher().Hash(password)
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	cred := &domain.Credential{
		ID:        uuid.New().String(),
		Username:  devUsername,
		Email:     devEmail,
		Hash:      digest,
		Salt:      salt,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, cred); err != nil {
		log.Fatalf("seed: create credential: %v", err)
	}
	log.Printf("seed: created credential %s <%s> (id %s)", devUsername, devEmail, cred.ID)
}
