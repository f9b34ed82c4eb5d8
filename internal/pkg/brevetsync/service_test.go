package brevetsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
	"github.com/brm-map/BrevetSync/internal/pkg/config"
	"github.com/brm-map/BrevetSync/internal/pkg/geocode"
)

type fakeFetcher struct {
	records []catalog.Record
	err     error
	calls   int
	year    int
}

func (f *fakeFetcher) Fetch(_ context.Context, year int) ([]catalog.Record, error) {
	f.calls++
	f.year = year
	return f.records, f.err
}

type recordingScheduler struct {
	slices [][3]int
	err    error
}

func (s *recordingScheduler) ScheduleSlice(limit, depth, year int) error {
	if s.err != nil {
		return s.err
	}
	s.slices = append(s.slices, [3]int{limit, depth, year})
	return nil
}

func syncConfig() *config.Config {
	return &config.Config{
		CatalogToken:    "test-token",
		CatalogYear:     2026,
		DrainSliceLimit: 30,
		DrainMaxDepth:   100,
	}
}

func TestSync_FullPass(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetcher := &fakeFetcher{records: []catalog.Record{
		catalogRecord(1, "Paris"),
		catalogRecord(2, "Lyon"),
	}}
	scheduler := &recordingScheduler{}
	svc := NewService(syncConfig(), fetcher, NewReconciler(repos), brevets, scheduler)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.NotEmpty(t, report.Duration)
	assert.Equal(t, 2026, fetcher.year)
	assert.Equal(t, 2, report.Stats.Catalog.Fetched)
	assert.Equal(t, 2, report.Stats.Database.New)
	assert.Equal(t, int64(2), report.Stats.Geocoding.Backlog)
	assert.True(t, report.Stats.Geocoding.DrainTriggered)

	// The drain is handed off, not executed inline.
	require.Len(t, scheduler.slices, 1)
	assert.Equal(t, [3]int{30, 1, 0}, scheduler.slices[0])
	backlog, err := brevets.CountGeocodeBacklog(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), backlog)
}

func TestSync_MissingTokenRefusesToRun(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetcher := &fakeFetcher{}
	cfg := syncConfig()
	cfg.CatalogToken = ""
	svc := NewService(cfg, fetcher, NewReconciler(repos), brevets, nil)

	report, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingCatalogToken)
	assert.Nil(t, report)
	assert.Equal(t, 0, fetcher.calls)
}

func TestSync_FetchErrorAborts(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetchErr := errors.New("upstream unavailable")
	fetcher := &fakeFetcher{err: fetchErr}
	svc := NewService(syncConfig(), fetcher, NewReconciler(repos), brevets, nil)

	report, err := svc.Sync(context.Background())
	assert.ErrorIs(t, err, fetchErr)
	assert.Nil(t, report)
}

func TestSync_EmptyBacklogSkipsDrain(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetcher := &fakeFetcher{records: []catalog.Record{
		catalogRecord(1, "Pas encore déterminée"),
	}}
	scheduler := &recordingScheduler{}
	svc := NewService(syncConfig(), fetcher, NewReconciler(repos), brevets, scheduler)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.Stats.Geocoding.Backlog)
	assert.False(t, report.Stats.Geocoding.DrainTriggered)
	assert.Empty(t, scheduler.slices)
}

func TestSync_SchedulerFailureIsNonFatal(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetcher := &fakeFetcher{records: []catalog.Record{catalogRecord(1, "Paris")}}
	scheduler := &recordingScheduler{err: errors.New("queue down")}
	svc := NewService(syncConfig(), fetcher, NewReconciler(repos), brevets, scheduler)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.False(t, report.Stats.Geocoding.DrainTriggered)
}

type fixedResolver struct {
	coords geocode.Coordinates
}

func (r *fixedResolver) Resolve(_ context.Context, _ []string) (*geocode.Coordinates, error) {
	c := r.coords
	return &c, nil
}

// Full pipeline: catalog sync followed by a backlog drain ends with stored
// coordinates and an empty backlog.
func TestSyncThenDrain_EndToEnd(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	fetcher := &fakeFetcher{records: []catalog.Record{catalogRecord(1, "Paris")}}
	scheduler := &recordingScheduler{}
	svc := NewService(syncConfig(), fetcher, NewReconciler(repos), brevets, scheduler)

	report, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Stats.Geocoding.Backlog)
	require.Len(t, scheduler.slices, 1)

	runner := geocode.NewRunner(brevets, &fixedResolver{coords: geocode.Coordinates{Latitude: 48.85, Longitude: 2.35}}, syncConfig())
	slice := scheduler.slices[0]
	stats, err := runner.RunSlice(context.Background(), slice[0], slice[1], slice[2])
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Geocoded)
	assert.Equal(t, int64(0), stats.Remaining)

	b, err := brevets.GetByID(1)
	require.NoError(t, err)
	require.NotNil(t, b.Latitude)
	assert.Equal(t, 48.85, *b.Latitude)
	assert.Equal(t, 2.35, *b.Longitude)

	// A second sync with the same catalog leaves the coordinates in place.
	report, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Database.Unchanged)
	assert.Equal(t, int64(0), report.Stats.Geocoding.Backlog)
	assert.False(t, report.Stats.Geocoding.DrainTriggered)

	b, err = brevets.GetByID(1)
	require.NoError(t, err)
	require.NotNil(t, b.Latitude)
	assert.Equal(t, 48.85, *b.Latitude)
}
