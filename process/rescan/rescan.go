// Package rescan retries scans that failed or read nothing, first on the
// stored photo and then on a sharpened, higher-contrast copy of it.
package rescan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dlscan/models"
	"dlscan/pkg/ocr"
)

// Summary counts what a run did.
type Summary struct {
	Checked   int
	Recovered int
	Still     int
	Errors    int
}

// Retry extracts data again. It returns the better of the two attempts; the
// boolean reports whether the aggressive variant was needed.
func Retry(ctx context.Context, x *ocr.Extractor, data []byte, mime string) (*ocr.Report, bool, error) {
	rep, err := x.Extract(ctx, ocr.Image{Data: data, MIMEType: mime}, nil)
	if err == nil && !rep.Record.Empty() {
		return rep, false, nil
	}
	alt, altErr := aggressive(data)
	if altErr != nil {
		return rep, false, err
	}
	rep2, err2 := x.Extract(ctx, ocr.Image{Data: alt, MIMEType: "image/png"}, nil)
	if err2 != nil {
		return rep, false, err
	}
	if rep == nil || rep2.Record.Count() > rep.Record.Count() {
		return rep2, true, nil
	}
	return rep, false, err
}

// aggressive sharpens and boosts contrast, for faint or soft photos.
func aggressive(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	proc := imaging.Sharpen(img, 2.0)
	proc = imaging.AdjustContrast(proc, 30)
	var buf bytes.Buffer
	if err := png.Encode(&buf, proc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run retries the user's failed and empty scans (all users when userID is 0).
// Stored paths are resolved against baseDir. With dry set nothing is written.
func Run(ctx context.Context, gdb *gorm.DB, x *ocr.Extractor, baseDir string, userID uint, dry bool) (Summary, error) {
	var sum Summary
	q := gdb.Where("state IN ?", []string{models.ScanFailed, models.ScanEmpty})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var scans []models.Scan
	if err := q.Order("id").Find(&scans).Error; err != nil {
		return sum, fmt.Errorf("query scans: %w", err)
	}
	for i := range scans {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		s := &scans[i]
		sum.Checked++
		data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(s.StorePath)))
		if err != nil {
			log.Warn().Err(err).Uint("scan", s.ID).Str("path", s.StorePath).Msg("photo missing")
			sum.Errors++
			continue
		}
		rep, boosted, err := Retry(ctx, x, data, s.ContentType)
		if err != nil {
			log.Warn().Err(err).Uint("scan", s.ID).Msg("retry failed")
			sum.Errors++
			continue
		}
		if rep.Record.Empty() {
			sum.Still++
			continue
		}
		sum.Recovered++
		log.Info().Uint("scan", s.ID).Int("fields", rep.Record.Count()).Bool("boosted", boosted).Msg("recovered")
		if dry {
			continue
		}
		if err := save(gdb, s, rep); err != nil {
			log.Error().Err(err).Uint("scan", s.ID).Msg("update failed")
			sum.Errors++
		}
	}
	return sum, nil
}

func save(gdb *gorm.DB, s *models.Scan, rep *ocr.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(s).Updates(map[string]any{
			"state":          models.ScanSuccess,
			"fields":         rep.Record.Count(),
			"low_confidence": rep.LowConfidence(),
			"report":         string(b),
			"failed_reason":  "",
		}).Error; err != nil {
			return err
		}
		var n int64
		tx.Model(&models.License{}).Where("scan_id = ?", s.ID).Count(&n)
		if n > 0 {
			return nil
		}
		l, err := models.LicenseFromRecord(s.UserID, rep.Record)
		if err != nil {
			return err
		}
		l.ScanID, l.Draft = &s.ID, true
		return tx.Create(&l).Error
	})
}
