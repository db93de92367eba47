package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dlscan/models"
	"dlscan/pkg/store"
)

// Sets a new password and revokes every refresh token of the user.
func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *username == "" || *password == "" {
		log.Fatal().Msg("--username and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal().Msg("password too short (min 6)")
	}
	_ = godotenv.Load()
	db, err := store.OpenFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	user, err := store.FindUser(db, *username)
	if err != nil {
		log.Fatal().Err(err).Msg("user not found")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}
	var revoked int64
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("hashed_password", hash).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).Where("user_id = ? AND revoked = ?", user.ID, false).Update("revoked", true)
		revoked = res.RowsAffected
		return res.Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("update failed")
	}
	fmt.Printf("Password reset for user %s (%d sessions revoked)\n", user.Username, revoked)
}
