package models

import "time"

// Scan states shown to the user after an extraction.
const (
	ScanSuccess = "success"
	ScanEmpty   = "empty"
	ScanFailed  = "failed"
)

// Scan is one uploaded license photo and the outcome of extracting it.
// The report is kept as JSON so the review screen can show sources and drops.
type Scan struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	UserID        uint   `gorm:"index;not null"`
	FileName      string `gorm:"size:255;not null"`
	StorePath     string `gorm:"column:store_path;size:512"`
	ContentType   string `gorm:"size:128"`
	ImageHash     string `gorm:"size:64;index"`
	State         string `gorm:"size:16;not null;index"`
	Fields        int    `gorm:"not null;default:0"`
	LowConfidence bool   `gorm:"default:true"`
	Report        string `gorm:"type:text" json:"-"`
	// Failed scans are kept so the user can retry or enter the data by hand.
	FailedReason string `gorm:"size:255"`
}
