package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dlscan/models"
	"dlscan/pkg/ocr"
	"dlscan/pkg/store"
)

const (
	defaultExpiringDays = 30
	maxExpiringDays     = 365
)

var errInvalidDays = errors.New("days must be between 1 and 365")

// licenseRequest is a human-reviewed record, optionally tied to the scan it came from.
type licenseRequest struct {
	ocr.LicenseRecord
	ScanID *uint `json:"scanId"`
}

// licenseView is the API representation of a stored license.
type licenseView struct {
	ID              uint              `json:"id"`
	Record          ocr.LicenseRecord `json:"record"`
	ScanID          *uint             `json:"scanId,omitempty"`
	Draft           bool              `json:"draft"`
	DaysUntilExpiry *int              `json:"daysUntilExpiry,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func viewOf(l models.License) licenseView {
	v := licenseView{ID: l.ID, Record: l.Record(), ScanID: l.ScanID, Draft: l.Draft, UpdatedAt: l.UpdatedAt}
	if d, ok := l.DaysUntilExpiry(timeNow()); ok {
		v.DaysUntilExpiry = &d
	}
	return v
}

func viewsOf(ls []models.License) []licenseView {
	out := make([]licenseView, 0, len(ls))
	for _, l := range ls {
		out = append(out, viewOf(l))
	}
	return out
}

// parseDays reads the expiring window; "" means the default.
func parseDays(s string) (int, error) {
	if s == "" {
		return defaultExpiringDays, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxExpiringDays {
		return 0, errInvalidDays
	}
	return n, nil
}

// bindLicense decodes and checks a license request for user.
func bindLicense(c *gin.Context, user *models.User) (models.License, *uint, bool) {
	var req licenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.License{}, nil, false
	}
	l, err := models.LicenseFromRecord(user.ID, req.LicenseRecord)
	if err == nil {
		err = l.CheckComplete()
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.License{}, nil, false
	}
	if req.ScanID != nil {
		var scan models.Scan
		if err := db.First(&scan, *req.ScanID).Error; err != nil || scan.UserID != user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scan"})
			return models.License{}, nil, false
		}
	}
	return l, req.ScanID, true
}

// loadLicense fetches the :id license if the caller is admin or owner.
func loadLicense(c *gin.Context) (*models.User, *models.License, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, nil, false
	}
	var l models.License
	if err := db.First(&l, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, nil, false
	}
	if !isAdmin(c) && l.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, nil, false
	}
	return user, &l, true
}

func createLicenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	l, scanID, ok := bindLicense(c, user)
	if !ok {
		return
	}
	l.ScanID = scanID
	if err := db.Create(&l).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": l.ID})
}

// listLicensesHandler lists licenses for the authenticated user (admin sees all)
func listLicensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.License
	q := db.Model(&models.License{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if c.Query("draft") == "true" {
		q = q.Where("draft = ?", true)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, viewsOf(items))
}

func getLicenseHandler(c *gin.Context) {
	_, l, ok := loadLicense(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(*l))
}

// updateLicenseHandler replaces the record; saving a draft confirms it.
func updateLicenseHandler(c *gin.Context) {
	_, l, ok := loadLicense(c)
	if !ok {
		return
	}
	owner := models.User{ID: l.UserID}
	next, scanID, ok := bindLicense(c, &owner)
	if !ok {
		return
	}
	next.ID = l.ID
	next.CreatedAt = l.CreatedAt
	next.ScanID = l.ScanID
	if scanID != nil {
		next.ScanID = scanID
	}
	next.Draft = false
	if err := db.Save(&next).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, viewOf(next))
}

func deleteLicenseHandler(c *gin.Context) {
	_, l, ok := loadLicense(c)
	if !ok {
		return
	}
	if err := db.Delete(&models.License{}, l.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "license deleted"})
}

// expiringLicensesHandler lists the caller's licenses expiring within ?days=N (default 30).
func expiringLicensesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	days, err := parseDays(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := timeNow().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	items, err := store.ExpiringLicenses(db, user.ID, from, from.AddDate(0, 0, days+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "licenses": viewsOf(items)})
}
