package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"place_enricher/internal/domain"
)

// ---- fakes ----

type fakePlaces struct {
	mu       sync.Mutex
	ids      map[string][]string       // query -> candidates
	details  map[string]map[string]any // place id -> result
	findErr  error
	detCalls int
	onFind   func()
}

func (f *fakePlaces) FindPlaceIDs(ctx context.Context, query string) ([]string, error) {
	if f.onFind != nil {
		f.onFind()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.ids[query], nil
}

func (f *fakePlaces) GetDetails(ctx context.Context, placeID string) (map[string]any, error) {
	f.mu.Lock()
	f.detCalls++
	f.mu.Unlock()
	d, ok := f.details[placeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

type miss struct {
	sheet, query string
	status       int
}

type fakeRepo struct {
	mu     sync.Mutex
	places map[string]domain.PlaceRecord
	misses []miss
	pv     domain.PlaceView
	page   domain.PlacesPage
	lastQ  domain.PlacesQuery
	err    error
}

func (f *fakeRepo) UpsertPlace(ctx context.Context, p domain.PlaceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.places == nil {
		f.places = map[string]domain.PlaceRecord{}
	}
	f.places[p.PlaceID] = p
	return nil
}

func (f *fakeRepo) LogMiss(ctx context.Context, sheet, query string, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, miss{sheet, query, status})
	return nil
}

func (f *fakeRepo) GetPlace(ctx context.Context, id string) (domain.PlaceView, error) {
	if f.pv.PlaceID != id {
		return domain.PlaceView{}, domain.ErrNotFound
	}
	return f.pv, nil
}

func (f *fakeRepo) ListPlaces(ctx context.Context, q domain.PlacesQuery) (domain.PlacesPage, error) {
	f.lastQ = q
	return f.page, nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
