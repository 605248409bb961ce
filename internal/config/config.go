package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort              string
	DatabaseDSN           string
	JWTSecret             string
	CORSOrigins           string
	CronSecret            string // aggregate-stats endpoint'i için paylaşılan secret
	LocationRetentionDays int    // GPS geçmişi saklama süresi (gün)
	BackfillMaxDays       int    // tek seferde geriye doldurulabilecek en fazla gün
}

func Load() *Config {
	// .env varsa yükle, yoksa sorun değil (production'da env'den gelir)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:           getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=damacana port=5432 sslmode=disable"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		CORSOrigins:           getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		CronSecret:            getEnv("CRON_SECRET", ""),
		LocationRetentionDays: getEnvInt("LOCATION_RETENTION_DAYS", 30),
		BackfillMaxDays:       getEnvInt("BACKFILL_MAX_DAYS", 90),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.CronSecret == "" {
		log.Fatal("[FATAL] CRON_SECRET tanımlanmamış! aggregate-stats endpoint'i korumasız kalır.")
	}
	if cfg.LocationRetentionDays < 1 {
		log.Fatal("[FATAL] LOCATION_RETENTION_DAYS en az 1 olmalı.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s sayı değil, varsayılan %d kullanılıyor", key, def)
	}
	return def
}
