package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"place_enricher/internal/adapters/observability"
	"place_enricher/internal/adapters/places"
	redisad "place_enricher/internal/adapters/redis"
	"place_enricher/internal/app"
	"place_enricher/internal/domain"
	"place_enricher/internal/shared"
	"place_enricher/internal/sheet"
	mysqlrepo "place_enricher/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	observability.Serve(cfg.MetricsAddr)

	sheets, err := shared.ResolveSheets(os.Args[1:], cfg.SheetsConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve sheets failed")
	}

	log.Info().
		Str("base", cfg.PlacesBase).
		Int("workers", cfg.Workers).
		Int("sheets", len(sheets)).
		Msg("enricher starting")

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRegion, cfg.PlacesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}

	// persistence and caching are optional for a plain CSV run
	var repo domain.PlaceRepository
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		repo = mysqlrepo.New(db)
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			cache = rc
		}
	}

	svc := app.NewEnrichmentService(client, repo, cache, cfg.CacheTTL)

	failed := 0
	for _, sh := range sheets {
		if err := runSheet(ctx, svc, sh, cfg.Workers); err != nil {
			log.Error().Err(err).Str("sheet", sh.Name).Msg("sheet failed")
			failed++
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Info().Int("failed_sheets", failed).Msg("enrichment completed")
	if failed > 0 {
		os.Exit(1)
	}
}

func runSheet(ctx context.Context, svc *app.EnrichmentService, sh shared.Sheet, workers int) error {
	out, err := sheet.OutputPath(sh.Path)
	if err != nil {
		return err
	}
	tbl, err := sheet.Read(sh.Path)
	if err != nil {
		return err
	}

	logger := observability.ForSheet(sh.Name)
	logger.Info().Str("in", sh.Path).Int("rows", tbl.Len()).Msg("sheet started")

	start := time.Now()
	progress := observability.NewProgress(os.Stdout, "Fetching data from "+sh.Name, tbl.Len())
	summary, err := svc.EnrichSheet(ctx, tbl, sh.Name, workers, func(row int, outcome app.Outcome, label string) {
		observability.ObserveRow(sh.Name, string(outcome))
		progress.Step(label)
	})
	progress.Finish()
	observability.ObserveSheet(sh.Name, time.Since(start))
	if err != nil {
		// a partial run is not written; the input stays the only copy
		return err
	}

	if err := tbl.Write(out); err != nil {
		return err
	}
	logger.Info().
		Str("out", out).
		Int("rows", tbl.Len()).
		Int("enriched", summary[app.OutcomeEnriched]).
		Int("no_match", summary[app.OutcomeNoMatch]).
		Int("skipped", summary[app.OutcomeSkipped]).
		Int("failed", summary[app.OutcomeFailed]).
		Msg("sheet written")
	return nil
}
