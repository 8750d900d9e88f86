package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"place_enricher/internal/domain"
	"place_enricher/internal/sheet"
)

type Outcome string

const (
	OutcomeEnriched Outcome = "enriched"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

func detailsKey(placeID string) string { return "place:details:" + placeID }
func placeKey(placeID string) string   { return "place:" + placeID }

// EnrichmentService resolves sheet rows against the places API.
// repo and cache are optional.
type EnrichmentService struct {
	places   domain.PlacesClient
	repo     domain.PlaceRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewEnrichmentService(c domain.PlacesClient, r domain.PlaceRepository, cache domain.Cache, ttl time.Duration) *EnrichmentService {
	return &EnrichmentService{places: c, repo: r, cache: cache, cacheTTL: ttl}
}

// Lookup resolves a free-text query to a normalized place and its raw details.
// A nil place with a nil error means nothing matched.
func (s *EnrichmentService) Lookup(ctx context.Context, query string) (*domain.Place, map[string]any, error) {
	ids, err := s.places.FindPlaceIDs(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("find place: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	raw, err := s.details(ctx, ids[0])
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	p, err := Normalize(raw)
	if err != nil {
		return nil, raw, err
	}
	if p.PlaceID == "" {
		p.PlaceID = ids[0]
	}
	return p, raw, nil
}

// details is a read-through cache over the details endpoint.
func (s *EnrichmentService) details(ctx context.Context, placeID string) (map[string]any, error) {
	if s.cache != nil {
		var raw map[string]any
		if ok, err := s.cache.Get(ctx, detailsKey(placeID), &raw); err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Msg("details cache read failed")
		} else if ok {
			return raw, nil
		}
	}

	raw, err := s.places.GetDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, detailsKey(placeID), raw, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Msg("details cache write failed")
		}
	}
	return raw, nil
}

// EnrichRow looks up one row and writes the result back into it.
// On any outcome other than OutcomeEnriched the row is left unmodified.
func (s *EnrichmentService) EnrichRow(ctx context.Context, sheetName string, row sheet.Row) (Outcome, *domain.Place, error) {
	query := sheet.BuildQuery(row)
	if query == "" {
		return OutcomeSkipped, nil, nil
	}

	p, raw, err := s.Lookup(ctx, query)
	if err != nil {
		return OutcomeFailed, nil, err
	}
	if p == nil {
		s.logMiss(ctx, sheetName, query, http.StatusNotFound, "no match")
		return OutcomeNoMatch, nil, nil
	}

	if s.repo != nil {
		rawJSON, err := json.Marshal(raw)
		if err != nil {
			return OutcomeFailed, nil, fmt.Errorf("marshal details %s: %w", p.PlaceID, err)
		}
		rec := domain.PlaceRecord{Place: *p, Sheet: sheetName, Query: query, RawJSON: rawJSON}
		if err := s.repo.UpsertPlace(ctx, rec); err != nil {
			return OutcomeFailed, nil, err
		}
		// the API serves views from cache; drop the stale one
		if s.cache != nil {
			_ = s.cache.Del(ctx, placeKey(p.PlaceID))
		}
	}

	sheet.Apply(row, p)
	return OutcomeEnriched, p, nil
}

func (s *EnrichmentService) logMiss(ctx context.Context, sheetName, query string, status int, reason string) {
	if s.repo == nil {
		return
	}
	if err := s.repo.LogMiss(ctx, sheetName, query, status, reason); err != nil {
		log.Warn().Err(err).Str("sheet", sheetName).Msg("log miss failed")
	}
}

// Summary counts row outcomes for one sheet.
type Summary map[Outcome]int

// RowObserver is told about every finished row; label is the place name when one was found.
type RowObserver func(row int, outcome Outcome, label string)

// EnrichSheet enriches every row of tbl with at most workers lookups in flight.
// Row failures are logged and counted, not returned; the error is non-nil only
// when ctx ends before every row has finished.
func (s *EnrichmentService) EnrichSheet(ctx context.Context, tbl *sheet.Table, sheetName string, workers int, observe RowObserver) (Summary, error) {
	if workers <= 0 {
		workers = 1
	}
	// header must be final before rows are written concurrently
	tbl.EnsureColumns(sheet.OutputColumns()...)

	var (
		mu  sync.Mutex
		sum = Summary{}
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(workers))
	)

	var schedErr error
	for i := 0; i < tbl.Len(); i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			schedErr = err
			break
		}

		wg.Add(1)
		go func(row sheet.Row) {
			defer wg.Done()
			defer sem.Release(1)

			outcome, p, err := s.EnrichRow(ctx, sheetName, row)
			label := row.Get(sheet.ColName)
			if p != nil {
				label = p.Name
			}
			if err != nil {
				log.Warn().Err(err).Str("sheet", sheetName).Int("row", row.Index()).Msg("enrich failed")
			}

			mu.Lock()
			sum[outcome]++
			mu.Unlock()
			if observe != nil {
				observe(row.Index(), outcome, label)
			}
		}(tbl.Row(i))
	}

	wg.Wait()
	if schedErr == nil {
		// cancelled while the last rows were in flight
		schedErr = ctx.Err()
	}
	return sum, schedErr
}
