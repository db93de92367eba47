package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dlscan/pkg/ocr"
)

// CardDateLayout is the DD-MM-YYYY form used on the card and in extracted records.
const CardDateLayout = "02-01-2006"

var (
	ErrLicenseNumberRequired = errors.New("license number is required")
	ErrExpiryRequired        = errors.New("expiry date is required")
	ErrExpiryBeforeIssue     = errors.New("expiry date cannot be before issue date")
	ErrInvalidDate           = errors.New("invalid date, expected DD-MM-YYYY")
)

// License is a reviewed driving-license record owned by a user. Draft rows are
// created by batch ingest and still wait for a human to confirm them.
type License struct {
	ID                  uint `gorm:"primaryKey"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	UserID              uint   `gorm:"index;not null"`
	ScanID              *uint  `gorm:"index"`
	Scan                *Scan  `gorm:"foreignKey:ScanID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Draft               bool   `gorm:"default:false;index"`
	LicenseNumber       string `gorm:"size:32;index"`
	HolderName          string `gorm:"size:255"`
	FatherOrHusbandName string `gorm:"size:255"`
	Address             string `gorm:"size:512"`
	DateOfBirth         *time.Time
	IssueDate           *time.Time
	ExpiryDate          *time.Time `gorm:"index"`
	CitizenshipNo       string     `gorm:"size:32"`
	PassportNo          string     `gorm:"size:32"`
	PhoneNo             string     `gorm:"size:16"`
	BloodGroup          string     `gorm:"size:4"`
	Category            string     `gorm:"size:8"`
	IssuingAuthority    string     `gorm:"size:255"`
}

// ParseCardDate reads a DD-MM-YYYY date; "" yields nil.
func ParseCardDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(CardDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return &t, nil
}

func formatCardDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(CardDateLayout)
}

// LicenseFromRecord converts an extracted or user-edited record into a row.
func LicenseFromRecord(userID uint, rec ocr.LicenseRecord) (License, error) {
	l := License{
		UserID:              userID,
		LicenseNumber:       rec.LicenseNumber,
		HolderName:          rec.HolderName,
		FatherOrHusbandName: rec.FatherOrHusbandName,
		Address:             rec.Address,
		CitizenshipNo:       rec.CitizenshipNo,
		PassportNo:          rec.PassportNo,
		PhoneNo:             rec.PhoneNo,
		BloodGroup:          rec.BloodGroup,
		Category:            rec.Category,
		IssuingAuthority:    rec.IssuingAuthority,
	}
	var err error
	if l.DateOfBirth, err = ParseCardDate(rec.DateOfBirth); err != nil {
		return License{}, fmt.Errorf("date of birth: %w", err)
	}
	if l.IssueDate, err = ParseCardDate(rec.IssueDate); err != nil {
		return License{}, fmt.Errorf("issue date: %w", err)
	}
	if l.ExpiryDate, err = ParseCardDate(rec.ExpiryDate); err != nil {
		return License{}, fmt.Errorf("expiry date: %w", err)
	}
	return l, nil
}

// Record returns the row as a license record with card-formatted dates.
func (l License) Record() ocr.LicenseRecord {
	return ocr.LicenseRecord{
		LicenseNumber:       l.LicenseNumber,
		HolderName:          l.HolderName,
		FatherOrHusbandName: l.FatherOrHusbandName,
		Address:             l.Address,
		DateOfBirth:         formatCardDate(l.DateOfBirth),
		IssueDate:           formatCardDate(l.IssueDate),
		ExpiryDate:          formatCardDate(l.ExpiryDate),
		CitizenshipNo:       l.CitizenshipNo,
		PassportNo:          l.PassportNo,
		PhoneNo:             l.PhoneNo,
		BloodGroup:          l.BloodGroup,
		Category:            l.Category,
		IssuingAuthority:    l.IssuingAuthority,
	}
}

// CheckComplete applies the save-time rules of the review form.
func (l License) CheckComplete() error {
	if strings.TrimSpace(l.LicenseNumber) == "" {
		return ErrLicenseNumberRequired
	}
	if l.ExpiryDate == nil {
		return ErrExpiryRequired
	}
	if l.IssueDate != nil && l.ExpiryDate.Before(*l.IssueDate) {
		return ErrExpiryBeforeIssue
	}
	return nil
}

// DaysUntilExpiry counts whole days from now to the expiry date; negative when expired.
func (l License) DaysUntilExpiry(now time.Time) (int, bool) {
	if l.ExpiryDate == nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := l.ExpiryDate.Date()
	exp := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24), true
}
