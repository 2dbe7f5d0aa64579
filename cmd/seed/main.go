// seed inserts development sample users for local testing.
// Idempotent: skips inserts when the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"care-link-platform/backend/internal/config"
	"care-link-platform/backend/internal/db"
	"care-link-platform/backend/internal/security"
	userdomain "care-link-platform/backend/internal/user/domain"
	userrepo "care-link-platform/backend/internal/user/repository"
)

const devPassword = "Dev!Passw0rd#2024"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; set it in the environment or a .env file")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Println("seed: dev users already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hashed, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	samples := []struct {
		email string
		name  string
		phone string
		role  userdomain.Role
		mfa   bool
	}{
		{"admin@example.com", "Dev Admin", "", userdomain.RoleAdmin, false},
		{"elder@example.com", "Edna Elder", "15550000001", userdomain.RoleElderly, false},
		{"guardian@example.com", "Gary Guardian", "15550000002", userdomain.RoleGuardian, true},
		{"counselor@example.com", "Cora Counselor", "15550000003", userdomain.RoleCounselor, true},
	}

	now := time.Now().UTC()
	for _, s := range samples {
		u := &userdomain.User{
			ID:           uuid.New().String(),
			Email:        s.email,
			Name:         s.name,
			Phone:        s.phone,
			PasswordHash: hashed,
			Role:         s.role,
			MFARequired:  s.mfa,
			Status:       userdomain.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: create %s: %v", s.email, err)
		}
		log.Printf("seed: created %s (%s)", s.email, s.role)
	}
}
