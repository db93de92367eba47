// Package ingest extracts a directory of license photos in bulk. Each photo
// becomes a Scan row and, when anything was read, a draft License waiting for
// review. Processed photos are moved out of the inbox so they run only once.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dlscan/models"
	"dlscan/pkg/ocr"
	"dlscan/pkg/store"
)

// Options control a run.
type Options struct {
	Dir          string
	ProcessedDir string
	UserID       uint
	Workers      int
	// DryRun extracts and reports without touching the database or moving files.
	DryRun bool
	// MaxProcessedBytes is the size above which moved photos are downscaled.
	MaxProcessedBytes int64
}

// Result is the outcome for one file.
type Result struct {
	File    string            `json:"file"`
	ScanID  uint              `json:"scanId,omitempty"`
	State   string            `json:"state"`
	Record  ocr.LicenseRecord `json:"record"`
	Skipped bool              `json:"skipped,omitempty"`
	Err     error             `json:"-"`
}

// Ingester runs extractions over a directory with a worker pool.
type Ingester struct {
	opts      Options
	db        *gorm.DB
	extractor *ocr.Extractor
	onResult  func(Result)

	mu   sync.Mutex
	seen map[string]uint // image hash -> scan id
}

// New returns an Ingester. db may be nil in dry-run mode. onResult is called
// for every file from the worker goroutines.
func New(db *gorm.DB, x *ocr.Extractor, opts Options, onResult func(Result)) *Ingester {
	if opts.ProcessedDir == "" {
		opts.ProcessedDir = filepath.Join(filepath.Dir(filepath.Clean(opts.Dir)), "processed")
	}
	if opts.MaxProcessedBytes <= 0 {
		opts.MaxProcessedBytes = 1_000_000
	}
	if onResult == nil {
		onResult = func(Result) {}
	}
	return &Ingester{opts: opts, db: db, extractor: x, onResult: onResult, seen: map[string]uint{}}
}

func (in *Ingester) workers() int {
	if in.opts.Workers <= 0 {
		return runtime.NumCPU()
	}
	return in.opts.Workers
}

// Preload remembers the photos the user already scanned so they are skipped.
func (in *Ingester) Preload() error {
	if in.opts.DryRun || in.db == nil {
		return nil
	}
	var scans []models.Scan
	if err := in.db.Select("id", "image_hash").Where("user_id = ? AND image_hash <> ''", in.opts.UserID).Find(&scans).Error; err != nil {
		return fmt.Errorf("preload scans: %w", err)
	}
	in.mu.Lock()
	for _, s := range scans {
		in.seen[s.ImageHash] = s.ID
	}
	in.mu.Unlock()
	log.Info().Int("scans", len(scans)).Msg("preloaded")
	return nil
}

// Run processes files (names relative to Dir) and waits for all of them.
func (in *Ingester) Run(ctx context.Context, files []string) {
	ch := make(chan string)
	done := in.startWorkers(ctx, ch)
	for _, f := range files {
		select {
		case ch <- f:
		case <-ctx.Done():
		}
	}
	close(ch)
	done.Wait()
}

func (in *Ingester) startWorkers(ctx context.Context, ch <-chan string) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < in.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range ch {
				if ctx.Err() != nil {
					continue
				}
				in.onResult(in.ProcessFile(ctx, name))
			}
		}()
	}
	return &wg
}

const (
	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

// Watch processes new files as they appear until ctx is done. A file is
// picked up once no event has touched it for a short while.
func (in *Ingester) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(in.opts.Dir); err != nil {
		return err
	}
	log.Info().Str("dir", in.opts.Dir).Msg("watching (debounced)")

	ch := make(chan string, 256)
	done := in.startWorkers(ctx, ch)
	defer func() {
		close(ch)
		done.Wait()
	}()

	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if IsSupportedExt(name) {
				pending[name] = time.Now()
			}
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) > debounceStable {
					delete(pending, name)
					ch <- name
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

// ProcessFile extracts one photo and stores the outcome.
func (in *Ingester) ProcessFile(ctx context.Context, name string) Result {
	res := Result{File: name}
	full := filepath.Join(in.opts.Dir, name)
	data, err := os.ReadFile(full)
	if err != nil {
		res.Err = err
		res.State = models.ScanFailed
		return res
	}
	h := sha256.Sum256(data)
	hash := hex.EncodeToString(h[:])

	in.mu.Lock()
	id, dup := in.seen[hash]
	if !dup {
		// reserve so a concurrent copy of the same photo is skipped
		in.seen[hash] = 0
	}
	in.mu.Unlock()
	if dup {
		log.Debug().Str("file", name).Uint("scan", id).Msg("skip already scanned")
		res.Skipped, res.ScanID = true, id
		return res
	}

	rep, err := in.extractor.Extract(ctx, ocr.Image{Data: data, MIMEType: mimeFromExt(name)}, nil)
	switch {
	case err != nil:
		res.State, res.Err = models.ScanFailed, err
	case rep.Err() != nil:
		res.State = models.ScanEmpty
	default:
		res.State, res.Record = models.ScanSuccess, rep.Record
	}
	if err != nil && errors.Is(err, context.Canceled) {
		in.forget(hash)
		return res
	}
	if in.opts.DryRun || in.db == nil {
		return res
	}

	scan := models.Scan{
		UserID:      in.opts.UserID,
		FileName:    name,
		StorePath:   filepath.ToSlash(filepath.Join(filepath.Base(in.opts.ProcessedDir), name)),
		ContentType: mimeFromExt(name),
		ImageHash:   hash,
		State:       res.State,
	}
	if rep != nil {
		scan.Fields = rep.Record.Count()
		scan.LowConfidence = rep.LowConfidence()
		if b, err := json.Marshal(rep); err == nil {
			scan.Report = string(b)
		}
	}
	if res.Err != nil {
		scan.FailedReason = truncate(res.Err.Error(), 255)
	}
	if err := in.db.Create(&scan).Error; err != nil {
		if !store.IsUniqueConstraintError(err) {
			in.forget(hash)
		}
		res.Err = fmt.Errorf("create scan: %w", err)
		return res
	}
	res.ScanID = scan.ID
	in.mu.Lock()
	in.seen[hash] = scan.ID
	in.mu.Unlock()

	if res.State == models.ScanSuccess {
		if err := in.createDraft(scan.ID, res.Record); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("draft license not created")
		}
	}
	if err := MoveToProcessed(full, in.opts.ProcessedDir, in.opts.MaxProcessedBytes); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("failed to move processed file")
	}
	return res
}

func (in *Ingester) forget(hash string) {
	in.mu.Lock()
	delete(in.seen, hash)
	in.mu.Unlock()
}

func (in *Ingester) createDraft(scanID uint, rec ocr.LicenseRecord) error {
	l, err := models.LicenseFromRecord(in.opts.UserID, rec)
	if err != nil {
		return err
	}
	l.ScanID = &scanID
	l.Draft = true
	return in.db.Create(&l).Error
}

var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

func mimeFromExt(name string) string {
	return extMime[strings.ToLower(filepath.Ext(name))]
}

// IsSupportedExt reports whether name looks like a photo we can read.
// Preprocessing artifacts are ignored to avoid processing our own output.
func IsSupportedExt(name string) bool {
	if strings.Contains(name, ".preproc.") || strings.HasPrefix(name, ".") {
		return false
	}
	return mimeFromExt(name) != ""
}

// ListImageFiles returns the supported files in dir, sorted.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && IsSupportedExt(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
