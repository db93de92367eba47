package store

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlscan/models"
)

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, IsUniqueConstraintError(nil))
	assert.True(t, IsUniqueConstraintError(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueConstraintError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username"`)))
	assert.False(t, IsUniqueConstraintError(errors.New("connection refused")))
}

func TestOpenFromEnvWithoutDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := OpenFromEnv()
	require.ErrorIs(t, err, ErrNoDSN)
}

func TestExpiringLicenses(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gdb, err := OpenFromEnv()
	require.NoError(t, err)
	Migrate(gdb)
	SeedRoles(gdb)

	rid, err := RoleID(gdb, models.RoleUser)
	require.NoError(t, err)
	user := models.User{Username: fmt.Sprintf("expiry-%d", time.Now().UnixNano()), HashedPassword: []byte("x"), RoleID: &rid}
	require.NoError(t, gdb.Create(&user).Error)

	now := time.Now().UTC()
	soon := now.AddDate(0, 0, 10)
	later := now.AddDate(0, 3, 0)
	require.NoError(t, gdb.Create(&models.License{UserID: user.ID, LicenseNumber: "01-01-00000001", ExpiryDate: &soon}).Error)
	require.NoError(t, gdb.Create(&models.License{UserID: user.ID, LicenseNumber: "01-01-00000002", ExpiryDate: &later}).Error)
	require.NoError(t, gdb.Create(&models.License{UserID: user.ID, LicenseNumber: "01-01-00000003", ExpiryDate: &soon, Draft: true}).Error)

	got, err := ExpiringLicenses(gdb, user.ID, now, now.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "01-01-00000001", got[0].LicenseNumber)
}
