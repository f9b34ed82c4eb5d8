package brevetsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/brm-map/BrevetSync/app/repository"
	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
	"github.com/brm-map/BrevetSync/internal/pkg/config"
	"github.com/brm-map/BrevetSync/internal/pkg/geocode"
)

// CatalogFetcher fetches the raw catalog. Implemented by *catalog.Client.
type CatalogFetcher interface {
	Fetch(ctx context.Context, year int) ([]catalog.Record, error)
}

// Service is the sync orchestrator: fetch catalog, reconcile, kick off the
// geocoding backlog drain, return the report. The drain is fire-and-forget so
// the sync call stays fast regardless of backlog size.
type Service struct {
	cfg        *config.Config
	fetcher    CatalogFetcher
	reconciler *Reconciler
	brevets    repository.BrevetRepository
	scheduler  geocode.Scheduler
}

// NewService creates the orchestrator. scheduler may be nil, in which case no
// drain is triggered and the backlog waits for an explicit drain call.
func NewService(cfg *config.Config, fetcher CatalogFetcher, reconciler *Reconciler,
	brevets repository.BrevetRepository, scheduler geocode.Scheduler) *Service {
	return &Service{
		cfg:        cfg,
		fetcher:    fetcher,
		reconciler: reconciler,
		brevets:    brevets,
		scheduler:  scheduler,
	}
}

// Sync runs one full pipeline pass and returns its report. Configuration and
// catalog errors abort before/without touching the store; store errors abort
// the failing step with prior idempotent steps left in place.
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	start := time.Now()

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	log.Infof("[Sync] Fetching catalog (year %d)", s.cfg.CatalogYear)
	records, err := s.fetcher.Fetch(ctx, s.cfg.CatalogYear)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}

	result, err := s.reconciler.Reconcile(records)
	if err != nil {
		return nil, err
	}

	backlog, err := s.brevets.CountGeocodeBacklog(0)
	if err != nil {
		return nil, fmt.Errorf("failed to count geocode backlog: %w", err)
	}

	drainTriggered := false
	if backlog > 0 && s.scheduler != nil {
		if err := s.scheduler.ScheduleSlice(s.cfg.DrainSliceLimit, 1, 0); err != nil {
			// Non-fatal: the backlog is persisted and a later run picks it up.
			log.Errorf("[Sync] Failed to trigger geocoding drain: %v", err)
		} else {
			drainTriggered = true
			log.Infof("[Sync] Triggered geocoding drain, backlog=%d", backlog)
		}
	}

	return &SyncReport{
		Success:   true,
		Timestamp: time.Now().UTC(),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
		Stats: SyncStats{
			Catalog: CatalogStats{
				Fetched:         result.Fetched,
				Valid:           result.Valid,
				Excluded:        result.Excluded,
				MappingFailures: result.MappingFailures,
				FailureSamples:  result.FailureSamples,
			},
			Database: DatabaseStats{
				ClubsUpserted: result.ClubsUpserted,
				New:           result.New,
				Updated:       result.Updated,
				Unchanged:     result.Unchanged,
				Deleted:       result.Deleted,
			},
			Geocoding: GeocodingStats{
				Backlog:          backlog,
				CoordinatesReset: len(result.ResetIDs),
				ResetIDs:         result.ResetIDs,
				DrainTriggered:   drainTriggered,
			},
		},
	}, nil
}
