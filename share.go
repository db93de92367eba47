package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"

	"dlscan/models"
)

var timeNow = time.Now

const (
	defaultShareHours = 24
	maxShareHours     = 168
	qrSize            = 256
)

var (
	errShareHours   = errors.New("expires_in_hours must be between 1 and 168")
	errInvalidShare = errors.New("this share link is invalid or has expired")
)

type shareClaims struct {
	LicenseID uint `json:"license_id"`
	jwt.RegisteredClaims
}

func signShareToken(secret []byte, licenseID uint, ttl time.Duration) (string, time.Time, error) {
	now := timeNow()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, shareClaims{
		LicenseID: licenseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "license-share",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(secret)
	return signed, exp, err
}

func parseShareToken(secret []byte, raw string) (uint, time.Time, error) {
	claims := &shareClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithSubject("license-share"))
	if err != nil || claims.LicenseID == 0 {
		return 0, time.Time{}, errInvalidShare
	}
	return claims.LicenseID, claims.ExpiresAt.Time, nil
}

func shareURL(token string) string {
	return cfg.ShareBaseURL + "/shared/" + token
}

// parseShareHours accepts 1..168; "" and 0 mean the default.
func parseShareHours(s string) (int, error) {
	if s == "" {
		return defaultShareHours, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errShareHours
	}
	if n == 0 {
		return defaultShareHours, nil
	}
	if n < 1 || n > maxShareHours {
		return 0, errShareHours
	}
	return n, nil
}

// shareLink loads the :id license and signs a link to it valid for hours.
func shareLink(c *gin.Context, hours int) (string, time.Time, bool) {
	_, l, ok := loadLicense(c)
	if !ok {
		return "", time.Time{}, false
	}
	if l.Draft {
		c.JSON(http.StatusConflict, gin.H{"error": "draft licenses must be reviewed before sharing"})
		return "", time.Time{}, false
	}
	token, exp, err := signShareToken(cfg.ShareSecret, l.ID, time.Duration(hours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign share token"})
		return "", time.Time{}, false
	}
	return token, exp, true
}

// shareLicenseHandler returns a signed read-only link to a license.
func shareLicenseHandler(c *gin.Context) {
	var req struct {
		ExpiresInHours int `json:"expires_in_hours"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	hours, err := parseShareHours(strconv.Itoa(req.ExpiresInHours))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, exp, ok := shareLink(c, hours)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "url": shareURL(token), "expires_at": exp})
}

// licenseQRCodeHandler renders a share link as a PNG QR code (?hours=N).
func licenseQRCodeHandler(c *gin.Context) {
	hours, err := parseShareHours(c.Query("hours"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, _, ok := shareLink(c, hours)
	if !ok {
		return
	}
	png, err := qrcode.Encode(shareURL(token), qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// sharedLicenseHandler is the public read-only view behind a share link.
func sharedLicenseHandler(c *gin.Context) {
	id, validUntil, err := parseShareToken(cfg.ShareSecret, c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	var l models.License
	if err := db.First(&l, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("license %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": l.Record(), "valid_until": validUntil})
}
