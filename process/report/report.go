// Package report lists a user's licenses that are due for renewal.
package report

import (
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"dlscan/models"
	"dlscan/pkg/store"
)

// Row is one license in the report.
type Row struct {
	ID            uint
	LicenseNumber string
	HolderName    string
	Category      string
	Expiry        time.Time
	DaysLeft      int
}

// Report covers the licenses expiring in [From, To).
type Report struct {
	Username string
	From, To time.Time
	Rows     []Row
}

// Build collects licenses of username expiring within days of now (UTC dates).
func Build(gdb *gorm.DB, username string, now time.Time, days int) (Report, error) {
	user, err := store.FindUser(gdb, username)
	if err != nil {
		return Report{}, fmt.Errorf("user %s: %w", username, err)
	}
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, days+1)
	ls, err := store.ExpiringLicenses(gdb, user.ID, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("query failed: %w", err)
	}
	return Report{Username: user.Username, From: from, To: to, Rows: Rows(ls, now)}, nil
}

// Rows converts licenses into report rows; licenses without expiry are left out.
func Rows(ls []models.License, now time.Time) []Row {
	out := make([]Row, 0, len(ls))
	for _, l := range ls {
		days, ok := l.DaysUntilExpiry(now)
		if !ok {
			continue
		}
		out = append(out, Row{
			ID:            l.ID,
			LicenseNumber: l.LicenseNumber,
			HolderName:    l.HolderName,
			Category:      l.Category,
			Expiry:        *l.ExpiryDate,
			DaysLeft:      days,
		})
	}
	return out
}

// Print writes the summary and, when list is set, one pipe-separated line per license.
func Print(w io.Writer, r Report, list bool) {
	fmt.Fprintf(w, "Renewals for user=%s between %s and %s (UTC):\n", r.Username,
		r.From.Format(models.CardDateLayout), r.To.AddDate(0, 0, -1).Format(models.CardDateLayout))
	fmt.Fprintf(w, "  licenses=%d\n", len(r.Rows))
	if !list {
		return
	}
	for _, row := range r.Rows {
		fmt.Fprintf(w, "%d|%s|%s|%s|%s|%d\n", row.ID, row.LicenseNumber, row.HolderName, row.Category,
			row.Expiry.Format(models.CardDateLayout), row.DaysLeft)
	}
}
