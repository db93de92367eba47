package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
)

var (
	cfg       config
	extractor *ocr.Extractor
	cache     *reportCache
)

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	// ./.env is optional; variables already set win.
	_ = godotenv.Load()
	cfg = loadConfig()
	setupLogging(cfg.LogLevel)

	// `./dlscan migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.AutoMigrate = true
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()
	extractor = ocr.NewExtractor(ocr.WithEngineFactory(ocr.TesseractFactory(cfg.tesseract())))
	cache = newReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
	defer cache.close()

	r := gin.Default()
	setupRoutes(r)

	log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
