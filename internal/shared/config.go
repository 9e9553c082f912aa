package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	SocrataToken  string
	Workers       int
	FetchLimit    int // max records per jurisdiction per run
	FetchPageSize int
	FetchTimeout  time.Duration // per-jurisdiction budget; timeout == fetch failure
	CacheTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/cleanplate?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		SocrataToken:  env("SOCRATA_APP_TOKEN", ""),
		Workers:       atoi("INGEST_WORKERS", 4),
		FetchLimit:    atoi("INGEST_FETCH_LIMIT", 2000),
		FetchPageSize: atoi("INGEST_PAGE_SIZE", 1000),
		FetchTimeout:  time.Duration(atoi("INGEST_FETCH_TIMEOUT_SECONDS", 120)) * time.Second,
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 3600)) * time.Second,
	}
	if c.SocrataToken == "" {
		log.Warn().Msg("SOCRATA_APP_TOKEN is empty; requests may be throttled harder")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
