package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the renewal service
type Config struct {
	AppMode   string
	Port      string
	PublicURL string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	SMTP      SMTPConfig
	Upload    UploadConfig
	Cron      CronConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	MaxIdleConns int
	MaxOpenConns int
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds refresh cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// SMTPConfig holds outgoing mail configuration.
// An empty Host disables delivery; emails are logged instead.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail server is configured
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// UploadConfig holds document storage configuration
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// CronConfig holds scheduled job specs (robfig/cron syntax)
type CronConfig struct {
	TokenPurgeSpec     string
	PendingBacklogSpec string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode, err := loadAppMode()
	if err != nil {
		return nil, err
	}

	port := getEnv("PORT", "3000")
	config := &Config{
		AppMode:   appMode,
		Port:      port,
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		SMTP:      loadSMTPConfig(appMode),
		Upload:    loadUploadConfig(),
		Cron: CronConfig{
			TokenPurgeSpec:     getEnv("CRON_TOKEN_PURGE", "0 3 * * *"),
			PendingBacklogSpec: getEnv("CRON_PENDING_BACKLOG", "0 8 * * *"),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadAppMode reads APP_MODE (default "dev"), trimmed for Windows line endings
func loadAppMode() (string, error) {
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return "", fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}
	return appMode, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "passport_portal"),

		MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadSMTPConfig loads mail server config based on mode
func loadSMTPConfig(mode string) SMTPConfig {
	prefix := modePrefix(mode)

	return SMTPConfig{
		Host:     getEnv(prefix+"SMTP_HOST", ""),
		Port:     getEnv(prefix+"SMTP_PORT", "587"),
		Username: getEnv(prefix+"SMTP_USER", ""),
		Password: getEnv(prefix+"SMTP_PASS", ""),
		From:     getEnv("SMTP_FROM", "Passport Renewals <no-reply@passport.gov.lk>"),
	}
}

func loadUploadConfig() UploadConfig {
	maxMB := getEnvInt("UPLOAD_MAX_MB", 10)
	return UploadConfig{
		Dir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxSizeBytes: int64(maxMB) << 20,
	}
}

// PortalConfig holds configuration for the portal client
type PortalConfig struct {
	APIURL         string
	CredentialPath string
	Timeout        time.Duration
	CacheTTL       time.Duration
	NotifyBuffer   int
}

// LoadPortal reads the portal client configuration. A missing .env is not an error.
func LoadPortal() PortalConfig {
	_ = godotenv.Load()

	timeoutSecs := getEnvInt("PORTAL_TIMEOUT_SECONDS", 15)
	ttlSecs, err := strconv.Atoi(getEnv("PORTAL_CACHE_TTL_SECONDS", "0"))
	if err != nil || ttlSecs < 0 {
		ttlSecs = 0
	}
	buffer := getEnvInt("PORTAL_NOTIFY_BUFFER", 64)

	return PortalConfig{
		APIURL:         strings.TrimRight(getEnv("PORTAL_API_URL", "http://localhost:3000"), "/"),
		CredentialPath: os.Getenv("PORTAL_CREDENTIAL_PATH"),
		Timeout:        time.Duration(timeoutSecs) * time.Second,
		CacheTTL:       time.Duration(ttlSecs) * time.Second,
		NotifyBuffer:   buffer,
	}
}

// getEnvInt reads a positive integer, falling back to the default
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.PublicURL
	}
	return origins
}
