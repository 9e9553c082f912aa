package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"cleanplate/internal/adapters/observability"
	"cleanplate/internal/adapters/opendata"
	redisad "cleanplate/internal/adapters/redis"
	"cleanplate/internal/app"
	"cleanplate/internal/shared"
	mysqlrepo "cleanplate/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	jurisdictions := shared.Jurisdictions()

	log.Info().
		Int("jurisdictions", len(jurisdictions)).
		Int("workers", cfg.Workers).
		Int("fetch_limit", cfg.FetchLimit).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	client := opendata.New(cfg.SocrataToken, 5)

	ing, err := app.NewIngestService(client, repo, cache, jurisdictions, app.IngestOptions{
		Workers:      cfg.Workers,
		FetchLimit:   cfg.FetchLimit,
		PageSize:     cfg.FetchPageSize,
		FetchTimeout: cfg.FetchTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ingest service")
	}

	rep, err := ing.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", rep.RunID).Msg("ingestion aborted")
	}

	for _, jr := range rep.Jurisdictions {
		ev := log.Info()
		if jr.Failed {
			ev = log.Warn().Err(jr.Err)
		}
		ev.
			Str("jurisdiction", jr.Code).
			Int("fetched", jr.Fetched).
			Int("mapped", jr.Mapped).
			Int("skipped", jr.Skipped).
			Msg("jurisdiction done")
	}

	log.Info().
		Str("run_id", rep.RunID).
		Int("persisted", rep.Persisted).
		Int("failures", rep.Failures).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("ingestion completed")
}
