package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"dlscan/models"
	"dlscan/pkg/store"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <username> <password> [role]")
		os.Exit(2)
	}
	username, password := os.Args[1], os.Args[2]
	roleName := models.RoleUser
	if len(os.Args) > 3 {
		roleName = os.Args[3]
	}
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	db, err := store.OpenFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open db")
	}
	store.SeedRoles(db)
	rid, err := store.RoleID(db, roleName)
	if err != nil {
		log.Fatal().Err(err).Msg("role")
	}

	if existing, err := store.FindUser(db, username); err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}
	if len(password) < 6 {
		log.Fatal().Msg("password too short (min 6)")
	}
	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt failed")
	}
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to create user")
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, roleName)
}
