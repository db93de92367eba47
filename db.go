package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dlscan/models"
	"dlscan/pkg/store"
)

var db *gorm.DB

func initDB() {
	var err error
	db, err = store.OpenFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres database")
	}
	// Schema migrations are controlled by DB_AUTO_MIGRATE (default true); failures are logged and ignored.
	if cfg.AutoMigrate {
		store.Migrate(db)
	}
	seedDB()
}

func seedDB() {
	store.SeedRoles(db)

	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		rid, err := store.RoleID(db, models.RoleAdministrator)
		if err != nil {
			log.Error().Err(err).Msg("failed to find administrator role")
			return
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin := models.User{Username: "admin", HashedPassword: hashedPassword, RoleID: &rid}
		if err := db.Create(&admin).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed admin user")
		} else {
			log.Info().Msg("seeded admin user: username=admin, password=admin123")
		}
	}
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Error().Err(err).Str("dir", base).Msg("failed to create upload base dir")
	}
}

// uploadBaseDir returns the base directory for stored license photos (UPLOAD_BASE).
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return cfg.UploadBase
}
