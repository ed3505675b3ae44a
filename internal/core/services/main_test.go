package services

import (
	"os"
	"testing"

	"passport-portal/internal/config"
	"passport-portal/internal/pkg/password"

	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode:   "dev",
		PublicURL: "http://portal.test",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}
