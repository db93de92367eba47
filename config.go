package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
)

// config is read once from the environment (after .env is loaded).
type config struct {
	ListenAddr     string
	JWTSecret      []byte
	ShareSecret    []byte
	ShareBaseURL   string
	UploadBase     string
	AutoMigrate    bool
	RedisAddr      string
	RedisPassword  string
	CacheTTL       time.Duration
	TessdataPrefix string
	Languages      []string
	LogLevel       string
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envBool treats false/0/no/off as false and anything else set as true.
func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "false", "0", "no", "off":
		return false
	}
	return true
}

func loadConfig() config {
	cfg := config{
		ListenAddr:     envOr("LISTEN_ADDR", ":8081"),
		JWTSecret:      []byte(envOr("JWT_SECRET", "dev-insecure-secret-change")),
		ShareBaseURL:   strings.TrimRight(envOr("SHARE_BASE_URL", "http://localhost:8081"), "/"),
		UploadBase:     envOr("UPLOAD_BASE", "uploads"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		CacheTTL:       24 * time.Hour,
		TessdataPrefix: os.Getenv("TESSDATA_PREFIX"),
		Languages:      strings.FieldsFunc(envOr("OCR_LANGUAGES", "eng"), func(r rune) bool { return r == ',' || r == '+' || r == ' ' }),
		LogLevel:       envOr("LOG_LEVEL", "info"),
	}
	cfg.ShareSecret = cfg.JWTSecret
	if s := os.Getenv("SHARE_TOKEN_SECRET"); s != "" {
		cfg.ShareSecret = []byte(s)
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		} else {
			log.Warn().Str("CACHE_TTL", v).Msg("ignoring invalid cache ttl")
		}
	}
	return cfg
}

func (c config) tesseract() ocr.TesseractOptions {
	return ocr.TesseractOptions{Languages: c.Languages, TessdataPrefix: c.TessdataPrefix}
}
