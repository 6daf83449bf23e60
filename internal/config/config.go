package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	RedisAddr   string // empty = verdict cache disabled

	// Low-stock sweep tuning
	LowStockFloor     int           // rows with stock_quantity <= floor are sweep candidates
	SweepInterval     time.Duration // 0 = no in-process scheduler, trigger via endpoint only
	SweepCooldown     time.Duration // minimum gap between two sweep transfers for the same row
	SweepMaxTransfers int           // per-run transfer cap
	SweepRowTimeout   time.Duration // per-row transfer deadline

	GeoRefreshInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=stocktier port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		LowStockFloor:     getEnvInt("LOW_STOCK_FLOOR", 2),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", 0),
		SweepCooldown:     getEnvDuration("SWEEP_COOLDOWN", time.Hour),
		SweepMaxTransfers: getEnvInt("SWEEP_MAX_TRANSFERS", 100),
		SweepRowTimeout:   getEnvDuration("SWEEP_ROW_TIMEOUT", 10*time.Second),

		GeoRefreshInterval: getEnvDuration("GEO_REFRESH_INTERVAL", 5*time.Minute),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set, refusing to start")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.LowStockFloor < 0 {
		log.Fatal("[FATAL] LOW_STOCK_FLOOR cannot be negative")
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
		log.Printf("[WARN] %s=%q is not an integer, using default %d", key, v, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[WARN] %s=%q is not a duration, using default %s", key, v, def)
	}
	return def
}
