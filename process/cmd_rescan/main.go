package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
	"dlscan/pkg/store"
	"dlscan/process/rescan"
)

func main() {
	base := flag.String("base", "uploads", "directory stored scan paths are relative to")
	username := flag.String("user", "", "only retry this user's scans (default: everyone)")
	dry := flag.Bool("dry-run", true, "dry-run: don't write to DB")
	langs := flag.String("lang", "eng", "tesseract languages, e.g. eng+nep")
	flag.Parse()

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	gdb, err := store.OpenFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(2)
	}
	var userID uint
	if *username != "" {
		u, err := store.FindUser(gdb, *username)
		if err != nil {
			fmt.Fprintf(os.Stderr, "user %s not found: %v\n", *username, err)
			os.Exit(2)
		}
		userID = u.ID
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	x := ocr.NewExtractor(ocr.WithEngineFactory(ocr.TesseractFactory(ocr.TesseractOptions{
		Languages:      strings.Split(*langs, "+"),
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),
	})))
	sum, err := rescan.Run(ctx, gdb, x, *base, userID, *dry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("checked=%d recovered=%d still_empty=%d errors=%d dry_run=%v\n", sum.Checked, sum.Recovered, sum.Still, sum.Errors, *dry)
}
