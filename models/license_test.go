package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlscan/pkg/ocr"
)

func TestLicenseFromRecordRoundTrip(t *testing.T) {
	rec := ocr.LicenseRecord{
		LicenseNumber: "03-06-041605052",
		HolderName:    "Ram Bahadur Thapa",
		DateOfBirth:   "15-04-1990",
		IssueDate:     "22-02-2023",
		ExpiryDate:    "21-02-2028",
		BloodGroup:    "B+",
		Category:      "A",
	}
	l, err := LicenseFromRecord(7, rec)
	require.NoError(t, err)
	assert.Equal(t, uint(7), l.UserID)
	require.NotNil(t, l.ExpiryDate)
	assert.Equal(t, 2028, l.ExpiryDate.Year())
	assert.Equal(t, rec, l.Record())
}

func TestLicenseFromRecordBadDate(t *testing.T) {
	_, err := LicenseFromRecord(1, ocr.LicenseRecord{IssueDate: "2023/02/22"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestCheckComplete(t *testing.T) {
	issue := time.Date(2023, 2, 22, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2028, 2, 21, 0, 0, 0, 0, time.UTC)
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		l    License
		want error
	}{
		{"complete", License{LicenseNumber: "03-06-041605052", IssueDate: &issue, ExpiryDate: &expiry}, nil},
		{"no issue date", License{LicenseNumber: "03-06-041605052", ExpiryDate: &expiry}, nil},
		{"missing number", License{ExpiryDate: &expiry}, ErrLicenseNumberRequired},
		{"missing expiry", License{LicenseNumber: "03-06-041605052"}, ErrExpiryRequired},
		{"expiry before issue", License{LicenseNumber: "03-06-041605052", IssueDate: &issue, ExpiryDate: &early}, ErrExpiryBeforeIssue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.CheckComplete()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDaysUntilExpiry(t *testing.T) {
	exp := time.Date(2028, 2, 21, 0, 0, 0, 0, time.UTC)
	l := License{ExpiryDate: &exp}
	days, ok := l.DaysUntilExpiry(time.Date(2028, 2, 11, 18, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 10, days)

	days, _ = l.DaysUntilExpiry(time.Date(2028, 2, 23, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, -2, days)

	_, ok = License{}.DaysUntilExpiry(time.Now())
	assert.False(t, ok)
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	assert.True(t, RefreshToken{ExpiresAt: now.Add(time.Hour)}.Usable(now))
	assert.False(t, RefreshToken{ExpiresAt: now.Add(-time.Hour)}.Usable(now))
	assert.False(t, RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}.Usable(now))
}
