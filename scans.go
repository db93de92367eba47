package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dlscan/models"
	"dlscan/pkg/ocr"
)

const (
	maxUploadBytes = 5 * 1024 * 1024
	scanTimeout    = 60 * time.Second
)

// User-facing messages for the review screen.
const (
	msgVerify = "Please verify the extracted details before saving."
	msgEmpty  = "No license details could be read. Please enter them manually."
)

// statusForError maps extraction failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ocr.ErrImageDecode):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrRecognition):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// scanState is "empty" when the user has to type everything in, else "success".
func scanState(rep *ocr.Report) string {
	if rep == nil || rep.Err() != nil {
		return models.ScanEmpty
	}
	return models.ScanSuccess
}

// runExtraction consults the cache before running the extractor.
func runExtraction(ctx context.Context, data []byte, mime string) (*ocr.Report, bool, error) {
	key := cacheKey(data)
	if rep, ok := cache.get(ctx, key); ok {
		return rep, true, nil
	}
	rep, err := extractor.Extract(ctx, ocr.Image{Data: data, MIMEType: mime}, func(stage string) {
		log.Debug().Str("stage", stage).Msg("scan progress")
	})
	if err != nil {
		return nil, false, err
	}
	cache.set(ctx, key, rep)
	return rep, false, nil
}

func scanResponse(scanID uint, rep *ocr.Report, cached bool) gin.H {
	state := scanState(rep)
	msg := msgVerify
	if state == models.ScanEmpty {
		msg = msgEmpty
	}
	return gin.H{
		"scan_id":        scanID,
		"state":          state,
		"record":         rep.Record,
		"report":         rep,
		"low_confidence": rep.LowConfidence(),
		"cached":         cached,
		"verify":         true,
		"message":        msg,
	}
}

// createScanHandler accepts a multipart license photo, extracts it and stores the outcome.
func createScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 5MB)"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	f.Close()
	if err != nil || len(data) == 0 || len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	ct := file.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}

	key := cacheKey(data)
	hash := key[strings.LastIndexByte(key, ':')+1:]
	relPath := filepath.ToSlash(filepath.Join("scans", fmt.Sprint(user.ID), hash[:16]+strings.ToLower(filepath.Ext(file.Filename))))
	fullPath := filepath.Join(uploadBaseDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	scan := models.Scan{UserID: user.ID, FileName: filepath.Base(file.Filename), StorePath: relPath, ContentType: ct, ImageHash: hash}
	ctx, cancel := context.WithTimeout(c.Request.Context(), scanTimeout)
	defer cancel()
	rep, cached, err := runExtraction(ctx, data, ct)
	if err != nil {
		log.Warn().Err(err).Str("file", scan.FileName).Msg("scan failed")
		scan.State = models.ScanFailed
		scan.FailedReason = truncate(err.Error(), 255)
		if dbErr := db.Create(&scan).Error; dbErr != nil {
			log.Error().Err(dbErr).Msg("store failed scan")
		}
		c.JSON(statusForError(err), gin.H{"error": err.Error(), "scan_id": scan.ID, "state": scan.State})
		return
	}

	scan.State = scanState(rep)
	scan.Fields = rep.Record.Count()
	scan.LowConfidence = rep.LowConfidence()
	if b, err := json.Marshal(rep); err == nil {
		scan.Report = string(b)
	}
	if err := db.Create(&scan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}
	c.JSON(http.StatusOK, scanResponse(scan.ID, rep, cached))
}

// listScansHandler returns scans; admin sees all, user only their own.
func listScansHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var scans []models.Scan
	q := db.Model(&models.Scan{}).Omit("report")
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(100).Find(&scans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, scans)
}

// getScanHandler returns a single scan with its decoded report if admin or owner.
func getScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var scan models.Scan
	if err := db.First(&scan, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !isAdmin(c) && scan.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var rep *ocr.Report
	if scan.Report != "" {
		rep = &ocr.Report{}
		if err := json.Unmarshal([]byte(scan.Report), rep); err != nil {
			rep = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{"scan": scan, "report": rep})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
