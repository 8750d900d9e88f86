package app

import (
	"context"
	"time"

	"place_enricher/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type QueryService struct {
	repo     domain.PlaceRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PlaceRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetPlace(ctx context.Context, placeID string) (domain.PlaceView, error) {
	key := placeKey(placeID)
	var pv domain.PlaceView
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &pv); ok {
			return pv, nil
		}
	}
	pv, err := s.repo.GetPlace(ctx, placeID)
	if err != nil {
		return domain.PlaceView{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, pv, int(s.cacheTTL.Seconds()))
	}
	return pv, nil
}

// ListPlaces is not cached; sheet listings change on every batch run.
func (s *QueryService) ListPlaces(ctx context.Context, q domain.PlacesQuery) (domain.PlacesPage, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = defaultListLimit
	case q.Limit > maxListLimit:
		q.Limit = maxListLimit
	}
	return s.repo.ListPlaces(ctx, q)
}
