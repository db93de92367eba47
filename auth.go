package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"dlscan/models"
	"dlscan/pkg/store"
)

var (
	ErrUsernameRequired   = errors.New("username required")
	ErrPasswordTooShort   = errors.New("password too short (min 6)")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

func RegisterUser(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	// pre-check existing (optimistic)
	if _, err := store.FindUser(db, username); err == nil {
		return ErrUserExists
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	rid, err := store.RoleID(db, models.RoleUser)
	if err != nil {
		return err
	}
	user := models.User{Username: username, HashedPassword: hashedPassword, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if store.IsUniqueConstraintError(err) { // race condition after initial check
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func Authenticate(username, password string) (models.User, error) {
	user, err := store.FindUser(db, username)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// roleName resolves the role stored by id on the user.
func roleName(user models.User) string {
	if user.RoleID == nil {
		return ""
	}
	var r models.Role
	if err := db.First(&r, *user.RoleID).Error; err != nil {
		return ""
	}
	return r.Name
}

// accessClaims are carried by bearer tokens.
type accessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func signAccessToken(secret []byte, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(secret)
}

func parseAccessToken(secret []byte, raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Username == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	rt := models.RefreshToken{UserID: userID, TokenHash: hashToken(token), ExpiresAt: time.Now().Add(refreshTokenTTL)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", hashToken(token)).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}
