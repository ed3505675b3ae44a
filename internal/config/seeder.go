package config

import (
	"errors"
	"log"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first reviewer account when none exists.
// Production requires ADMIN_SEED_PASSWORD; dev falls back to a fixed one.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := getEnv("ADMIN_SEED_EMAIL", "admin@passport.gov.lk")
	plain := getEnv("ADMIN_SEED_PASSWORD", "")
	if plain == "" {
		if !s.cfg.IsDev() {
			return errors.New("ADMIN_SEED_PASSWORD is not set")
		}
		plain = "admin123456"
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		FullName: "Passport Office Administrator",
		Password: hashed,
		Role:     "admin",
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}
