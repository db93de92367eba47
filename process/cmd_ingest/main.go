package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dlscan/models"
	"dlscan/pkg/ocr"
	"dlscan/pkg/store"
	"dlscan/process/ingest"
)

// Scans a directory of license photos, stores a Scan and a draft License per
// photo and optionally keeps watching for new ones.
func main() {
	dir := flag.String("dir", "public/inbox", "directory to scan for license photos")
	processed := flag.String("processed", "", "where processed photos are moved (default: <dir>/../processed)")
	username := flag.String("user", "admin", "owner of the created scans and drafts")
	dryRun := flag.Bool("dry-run", false, "extract and print only; no DB queries or writes")
	watch := flag.Bool("watch", false, "watch directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	langs := flag.String("lang", "eng", "tesseract languages, e.g. eng+nep")
	verbose := flag.Bool("verbose", false, "verbose per-file logging")
	flag.Parse()

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	x := ocr.NewExtractor(ocr.WithEngineFactory(ocr.TesseractFactory(ocr.TesseractOptions{
		Languages:      strings.Split(*langs, "+"),
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),
	})))
	opts := ingest.Options{Dir: *dir, ProcessedDir: *processed, Workers: *workers, DryRun: *dryRun}

	var ok, empty, failed, skipped atomic.Int64
	enc := json.NewEncoder(os.Stdout)
	onResult := func(r ingest.Result) {
		switch {
		case r.Skipped:
			skipped.Add(1)
			log.Debug().Str("file", r.File).Msg("skip already scanned")
			return
		case r.Err != nil:
			failed.Add(1)
			log.Warn().Err(r.Err).Str("file", r.File).Msg("failed")
		case r.State == models.ScanEmpty:
			empty.Add(1)
			log.Info().Str("file", r.File).Msg("nothing readable")
		default:
			ok.Add(1)
			log.Info().Str("file", r.File).Uint("scan", r.ScanID).Int("fields", r.Record.Count()).Msg("extracted")
		}
		if *dryRun {
			_ = enc.Encode(r)
		}
	}

	var in *ingest.Ingester
	if *dryRun {
		log.Info().Str("dir", *dir).Msg("dry-run: no DB interaction")
		in = ingest.New(nil, x, opts, onResult)
	} else {
		gdb, err := store.OpenFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		user, err := store.FindUser(gdb, *username)
		if err != nil {
			log.Fatal().Err(err).Str("user", *username).Msg("owner not found")
		}
		opts.UserID = user.ID
		in = ingest.New(gdb, x, opts, onResult)
		if err := in.Preload(); err != nil {
			log.Fatal().Err(err).Msg("preload")
		}
	}

	files, err := ingest.ListImageFiles(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("read dir")
	}
	log.Info().Int("files", len(files)).Msg("scanning")
	in.Run(ctx, files)
	fmt.Fprintf(os.Stderr, "done: extracted=%d empty=%d failed=%d skipped=%d\n", ok.Load(), empty.Load(), failed.Load(), skipped.Load())

	if *watch {
		if err := in.Watch(ctx); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	}
}
