package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/afrowiki/internal/config"
	"github.com/afrowiki/internal/db"
	"github.com/afrowiki/internal/handler"
	"github.com/afrowiki/internal/router"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := db.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("failed to seed admin account: %v", err)
		}
	}

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath, cfg.FactCheckURL, cfg.FactCheckAPIKey)
	r := router.SetupRouter(cfg, api)

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
