package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"place_enricher/internal/app"
	"place_enricher/internal/sheet"
)

const csvIn = `NAME,ADDRESS1,ADDRESS2,ADDRESS3,POSTCODE,CITY,PHONE_PRIMARY
Example Hall,,,,SW1A 1AA,London,
Unknown Place,1 Nowhere Road,,,ZZ1 1ZZ,Nowhere,01234
,,,,,,
Broken Place,,,,,Leeds,
`

func newFixture(t *testing.T) (*fakePlaces, *fakeRepo, *fakeCache, *sheet.Table) {
	t.Helper()
	tbl, err := sheet.Parse(strings.NewReader(csvIn))
	require.NoError(t, err)

	places := &fakePlaces{
		ids: map[string][]string{
			"Example Hall SW1A 1AA London": {"hall-1", "hall-2"},
			"Broken Place Leeds":           {"broken"},
		},
		details: map[string]map[string]any{
			"hall-1": decodeAny(exampleHall),
			"broken": {"name": "Broken Place"},
		},
	}
	return places, &fakeRepo{}, &fakeCache{}, tbl
}

func TestEnrichRow_Enriched(t *testing.T) {
	places, repo, cache, tbl := newFixture(t)
	tbl.EnsureColumns(sheet.OutputColumns()...)
	svc := app.NewEnrichmentService(places, repo, cache, time.Hour)

	row := tbl.Row(0)
	outcome, p, err := svc.EnrichRow(context.Background(), "community_centres", row)
	require.NoError(t, err)
	assert.Equal(t, app.OutcomeEnriched, outcome)
	assert.Equal(t, "hall-1", p.PlaceID) // filled from the candidate id

	assert.Equal(t, "Example Hall", row.Get(sheet.ColAddress1))
	assert.Equal(t, "12 High Street", row.Get(sheet.ColAddress2))
	assert.Equal(t, "London", row.Get(sheet.ColCity)) // not in details, kept
	assert.Equal(t, "51.5", row.Get(sheet.ColLat))
	assert.Equal(t, "true", row.Get(sheet.ColOpeningHours))
	assert.Equal(t, "09:00", row.Get("MON_OPEN"))

	rec, ok := repo.places["hall-1"]
	require.True(t, ok)
	assert.Equal(t, "community_centres", rec.Sheet)
	assert.Equal(t, "Example Hall SW1A 1AA London", rec.Query)
	assert.Contains(t, string(rec.RawJSON), "High Street")
	assert.Contains(t, cache.dels, "place:hall-1")
}

func TestEnrichRow_NoMatchLeavesRowUntouched(t *testing.T) {
	places, repo, cache, tbl := newFixture(t)
	tbl.EnsureColumns(sheet.OutputColumns()...)
	svc := app.NewEnrichmentService(places, repo, cache, time.Hour)

	row := tbl.Row(1)
	before := rowValues(tbl, 1)
	outcome, p, err := svc.EnrichRow(context.Background(), "gps", row)
	require.NoError(t, err)
	assert.Equal(t, app.OutcomeNoMatch, outcome)
	assert.Nil(t, p)
	assert.Equal(t, before, rowValues(tbl, 1))
	require.Len(t, repo.misses, 1)
	assert.Equal(t, 404, repo.misses[0].status)
}

func TestEnrichRow_EmptyRowSkipped(t *testing.T) {
	places, repo, cache, tbl := newFixture(t)
	svc := app.NewEnrichmentService(places, repo, cache, time.Hour)

	outcome, _, err := svc.EnrichRow(context.Background(), "gps", tbl.Row(2))
	require.NoError(t, err)
	assert.Equal(t, app.OutcomeSkipped, outcome)
}

func TestEnrichRow_StructuralViolationFails(t *testing.T) {
	places, repo, cache, tbl := newFixture(t)
	tbl.EnsureColumns(sheet.OutputColumns()...)
	svc := app.NewEnrichmentService(places, repo, cache, time.Hour)

	before := rowValues(tbl, 3)
	outcome, _, err := svc.EnrichRow(context.Background(), "gps", tbl.Row(3))
	assert.Error(t, err)
	assert.Equal(t, app.OutcomeFailed, outcome)
	assert.Equal(t, before, rowValues(tbl, 3))
	assert.Empty(t, repo.places)
}

func TestEnrichRow_RepoErrorLeavesRowUntouched(t *testing.T) {
	places, repo, cache, tbl := newFixture(t)
	tbl.EnsureColumns(sheet.OutputColumns()...)
	repo.err = errors.New("db down")
	svc := app.NewEnrichmentService(places, repo, cache, time.Hour)

	before := rowValues(tbl, 0)
	outcome, _, err := svc.EnrichRow(context.Background(), "gps", tbl.Row(0))
	assert.Error(t, err)
	assert.Equal(t, app.OutcomeFailed, outcome)
	assert.Equal(t, before, rowValues(tbl, 0))
}

func TestLookup_DetailsServedFromCache(t *testing.T) {
	places, _, cache, _ := newFixture(t)
	svc := app.NewEnrichmentService(places, nil, cache, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, _, err := svc.Lookup(ctx, "Example Hall SW1A 1AA London")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Example Hall", p.Name)
	}
	assert.Equal(t, 1, places.detCalls)
}

func TestLookup_FindError(t *testing.T) {
	places, _, _, _ := newFixture(t)
	places.findErr = errors.New("boom")
	svc := app.NewEnrichmentService(places, nil, nil, time.Hour)

	_, _, err := svc.Lookup(context.Background(), "x")
	assert.ErrorContains(t, err, "boom")
}

func TestEnrichSheet_Summary(t *testing.T) {
	places, _, _, tbl := newFixture(t)
	svc := app.NewEnrichmentService(places, nil, nil, time.Hour)

	var mu sync.Mutex
	seen := map[int]app.Outcome{}
	sum, err := svc.EnrichSheet(context.Background(), tbl, "community_centres", 3, func(row int, o app.Outcome, label string) {
		mu.Lock()
		seen[row] = o
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, app.Summary{
		app.OutcomeEnriched: 1,
		app.OutcomeNoMatch:  1,
		app.OutcomeSkipped:  1,
		app.OutcomeFailed:   1,
	}, sum)
	assert.Len(t, seen, 4)
	assert.Equal(t, app.OutcomeEnriched, seen[0])
	assert.True(t, tbl.Has("SAT_CLOSE"))
}

func TestEnrichSheet_CanceledContext(t *testing.T) {
	places, _, _, tbl := newFixture(t)
	svc := app.NewEnrichmentService(places, nil, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.EnrichSheet(ctx, tbl, "gps", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichSheet_CanceledWhileRowsInFlight(t *testing.T) {
	tbl, err := sheet.Parse(strings.NewReader("NAME,CITY\nExample Hall,London\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	places := &fakePlaces{onFind: cancel}
	svc := app.NewEnrichmentService(places, nil, nil, time.Hour)

	sum, err := svc.EnrichSheet(ctx, tbl, "gps", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, app.Summary{app.OutcomeFailed: 1}, sum)
}

func rowValues(tbl *sheet.Table, n int) map[string]string {
	out := map[string]string{}
	for _, h := range tbl.Header() {
		out[h] = tbl.Row(n).Get(h)
	}
	return out
}
