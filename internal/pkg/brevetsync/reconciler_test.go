package brevetsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
)

func TestReconcile_FirstSyncInsertsEverything(t *testing.T) {
	repos, brevets, clubs := newFakeRepositories()
	r := NewReconciler(repos)

	result, err := r.Reconcile([]catalog.Record{
		catalogRecord(1, "Paris"),
		catalogRecord(2, "Lyon"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Valid)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Deleted)
	assert.ElementsMatch(t, []int{1, 2}, result.NeedsGeocoding)
	assert.Empty(t, result.ResetIDs)

	count, err := brevets.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Both records share one club; it is upserted once.
	assert.Equal(t, 1, result.ClubsUpserted)
	clubCount, err := clubs.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), clubCount)
}

func TestReconcile_SecondIdenticalSyncIsIdempotent(t *testing.T) {
	repos, _, _ := newFakeRepositories()
	r := NewReconciler(repos)
	records := []catalog.Record{catalogRecord(1, "Paris"), catalogRecord(2, "Lyon")}

	_, err := r.Reconcile(records)
	require.NoError(t, err)

	result, err := r.Reconcile(records)
	require.NoError(t, err)

	assert.Equal(t, 0, result.New)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 2, result.Unchanged)
	assert.Empty(t, result.ResetIDs)
	assert.Empty(t, result.NeedsGeocoding)
}

func TestReconcile_NonAddressChangePreservesGeocodingState(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	r := NewReconciler(repos)

	_, err := r.Reconcile([]catalog.Record{catalogRecord(1, "Paris")})
	require.NoError(t, err)

	// Geocoding and a GPX upload happen between two sync runs.
	attempted := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, brevets.UpdateCoordinates(1, 48.85, 2.35, attempted))
	stored := brevets.brevets[1]
	stored.GPXFilePath = strPtr("/gpx/brm-1.gpx")
	uploaded := attempted.Add(time.Hour)
	stored.GPXUploadedAt = &uploaded
	stored.GPXFileSize = int64Ptr(20480)

	rec := catalogRecord(1, "Paris")
	rec.OrganizerEmail = strPtr("replacement@example.org")
	result, err := r.Reconcile([]catalog.Record{rec})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.ResetIDs)

	after, err := brevets.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "replacement@example.org", *after.OrganizerEmail)
	require.NotNil(t, after.Latitude)
	assert.Equal(t, 48.85, *after.Latitude)
	assert.Equal(t, 2.35, *after.Longitude)
	require.NotNil(t, after.LastGeocodeAttempt)
	assert.True(t, after.LastGeocodeAttempt.Equal(attempted))
	assert.Equal(t, "/gpx/brm-1.gpx", *after.GPXFilePath)
	assert.Equal(t, int64(20480), *after.GPXFileSize)
}

func TestReconcile_AddressChangeResetsCoordinates(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	r := NewReconciler(repos)

	_, err := r.Reconcile([]catalog.Record{catalogRecord(1, "Paris")})
	require.NoError(t, err)
	require.NoError(t, brevets.UpdateCoordinates(1, 48.85, 2.35, time.Now().UTC()))

	rec := catalogRecord(1, "Marseille")
	result, err := r.Reconcile([]catalog.Record{rec})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []int{1}, result.ResetIDs)
	assert.Equal(t, []int{1}, result.NeedsGeocoding)

	after, err := brevets.GetByID(1)
	require.NoError(t, err)
	assert.Nil(t, after.Latitude)
	assert.Nil(t, after.Longitude)
	assert.Nil(t, after.LastGeocodeAttempt)

	// The record is back in the geocoding backlog.
	backlog, err := brevets.CountGeocodeBacklog(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), backlog)
}

func TestReconcile_DeletesGoneAndCancelled(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	r := NewReconciler(repos)

	_, err := r.Reconcile([]catalog.Record{
		catalogRecord(1, "Paris"),
		catalogRecord(2, "Lyon"),
		catalogRecord(3, "Brest"),
	})
	require.NoError(t, err)

	// Record 2 disappears upstream, record 3 comes back cancelled.
	cancelled := catalogRecord(3, "Brest")
	cancelled.Status = catalog.StatusCancelled
	result, err := r.Reconcile([]catalog.Record{catalogRecord(1, "Paris"), cancelled})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Excluded)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, 1, result.Unchanged)

	ids, err := brevets.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestReconcile_UnmappableRecordIsSkipped(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	r := NewReconciler(repos)

	bad := catalogRecord(9, "Paris")
	bad.Date = "2026-04-12" // wrong format
	result, err := r.Reconcile([]catalog.Record{catalogRecord(1, "Paris"), bad})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Valid)
	assert.Equal(t, 1, result.MappingFailures)
	require.Len(t, result.FailureSamples, 1)
	assert.Contains(t, result.FailureSamples[0], "record 9")

	ids, err := brevets.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)
}

func TestReconcile_PlaceholderCityStaysOutOfBacklog(t *testing.T) {
	repos, brevets, _ := newFakeRepositories()
	r := NewReconciler(repos)

	result, err := r.Reconcile([]catalog.Record{catalogRecord(1, "Pas encore déterminée")})
	require.NoError(t, err)
	assert.Equal(t, 1, result.New)

	backlog, err := brevets.CountGeocodeBacklog(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), backlog)
}
