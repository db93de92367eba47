package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
)

func main() {
	f := flag.String("file", "", "license photo to extract")
	langs := flag.String("lang", "eng", "tesseract languages, e.g. eng+nep")
	noPre := flag.Bool("no-preproc", false, "skip preprocessing")
	flag.Parse()
	if *f == "" {
		fmt.Fprintln(os.Stderr, "-file required")
		os.Exit(2)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	data, err := os.ReadFile(*f)
	if err != nil {
		log.Fatal().Err(err).Msg("read")
	}
	opts := []ocr.Option{ocr.WithEngineFactory(ocr.TesseractFactory(ocr.TesseractOptions{
		Languages:      strings.Split(*langs, "+"),
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),
	}))}
	if *noPre {
		opts = append(opts, ocr.WithoutPreprocessing())
	}
	x := ocr.NewExtractor(opts...)
	rep, err := x.Extract(context.Background(), ocr.Image{Data: data, MIMEType: mime.TypeByExtension(filepath.Ext(*f))}, func(stage string) {
		fmt.Fprintln(os.Stderr, "..", stage)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("extraction error")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rep)
	if rep.LowConfidence() {
		fmt.Fprintln(os.Stderr, "low confidence: review every field")
	}
}
