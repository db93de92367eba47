// Package store opens the Postgres database and holds the queries shared by
// the API server and the process tools.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dlscan/models"
)

// ErrNoDSN is returned when DB_DSN is not set.
var ErrNoDSN = errors.New("DB_DSN is not set")

// Open connects through a pgx connection pool and wraps it with gorm.
func Open(dsn string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return gdb, nil
}

// OpenFromEnv opens the database named by DB_DSN.
func OpenFromEnv() (*gorm.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		return nil, ErrNoDSN
	}
	return Open(dsn)
}

// Migrate creates the tables one by one so a failure on one doesn't block the
// others. Roles go first so users can reference them.
func Migrate(gdb *gorm.DB) {
	for _, m := range []struct {
		table string
		model any
	}{
		{"roles", &models.Role{}},
		{"users", &models.User{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"scans", &models.Scan{}},
		{"licenses", &models.License{}},
	} {
		if err := gdb.AutoMigrate(m.model); err != nil {
			log.Warn().Err(err).Str("table", m.table).Msg("migration warning")
		}
	}
}

// SeedRoles creates the default roles that are missing.
func SeedRoles(gdb *gorm.DB) {
	for _, r := range models.DefaultRoles() {
		var cnt int64
		gdb.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			if err := gdb.Create(&r).Error; err != nil {
				log.Warn().Err(err).Str("role", r.Name).Msg("seed role failed")
			}
		}
	}
}

// RoleID returns the id of the named role, creating it when missing.
func RoleID(gdb *gorm.DB, name string) (uint, error) {
	role := models.Role{Name: name}
	if err := gdb.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
		return 0, fmt.Errorf("ensure role %s: %w", name, err)
	}
	return role.ID, nil
}

// IsUniqueConstraintError reports a unique violation from Postgres.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// ExpiringLicenses returns confirmed licenses whose expiry falls in [from, to),
// soonest first. A zero userID selects every user.
func ExpiringLicenses(gdb *gorm.DB, userID uint, from, to time.Time) ([]models.License, error) {
	q := gdb.Model(&models.License{}).
		Where("draft = ?", false).
		Where("expiry_date >= ? AND expiry_date < ?", from, to)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.License
	if err := q.Order("expiry_date asc, id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindUser loads a user by username.
func FindUser(gdb *gorm.DB, username string) (models.User, error) {
	var u models.User
	err := gdb.Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	return u, err
}
