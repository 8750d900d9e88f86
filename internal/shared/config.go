package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv       string
	LogLevel     string
	HTTPAddr     string
	MetricsAddr  string
	MySQLDSN     string // empty disables persistence in the enricher
	RedisAddr    string // empty disables caching
	RedisDB      int
	RedisPass    string
	PlacesBase   string
	PlacesKey    string
	PlacesRegion string
	PlacesRPS    int
	Workers      int
	CacheTTL     time.Duration
	SheetsConfig string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric env value")
		}
		return def
	}
	c := Config{
		AppEnv:       env("APP_ENV", "prod"),
		LogLevel:     env("LOG_LEVEL", "info"),
		HTTPAddr:     env("HTTP_ADDR", ":8080"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		MySQLDSN:     os.Getenv("MYSQL_DSN"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		PlacesBase:   env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:    env("PLACES_API_KEY", ""),
		PlacesRegion: env("PLACES_REGION", "uk"),
		PlacesRPS:    atoi("PLACES_RPS", 0),
		Workers:      atoi("INGEST_WORKERS", 4),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,
		SheetsConfig: env("SHEETS_CONFIG", "configs/sheets.yaml"),
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("PLACES_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
