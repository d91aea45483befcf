package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig holds the runtime configuration for the server.
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	SessionSecret   string
	GinMode         string
	UploadDir       string
	UploadURLPath   string
	AdminName       string
	AdminEmail      string
	AdminPassword   string
	FactCheckURL    string
	FactCheckAPIKey string
}

// Load reads configuration from environment variables, filling in safe
// defaults for anything missing.
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "afrowiki.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "afrowiki-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	adminName := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	adminEmail := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	adminPassword := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	factCheckURL := strings.TrimSpace(os.Getenv("FACT_CHECK_URL"))
	factCheckAPIKey := strings.TrimSpace(os.Getenv("FACT_CHECK_API_KEY"))

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    databasePath,
		SessionSecret:   sessionSecret,
		GinMode:         ginMode,
		UploadDir:       uploadDir,
		UploadURLPath:   uploadURLPath,
		AdminName:       adminName,
		AdminEmail:      adminEmail,
		AdminPassword:   adminPassword,
		FactCheckURL:    factCheckURL,
		FactCheckAPIKey: factCheckAPIKey,
	}
}
