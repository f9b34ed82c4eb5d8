package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/brm-map/BrevetSync/app/models"
	"github.com/brm-map/BrevetSync/app/repository"
	"github.com/brm-map/BrevetSync/internal/pkg/config"
)

// maxErrorSamples bounds the list of failing IDs carried in slice stats.
const maxErrorSamples = 3

// Resolver resolves address tokens to coordinates. Implemented by *Client.
type Resolver interface {
	Resolve(ctx context.Context, tokens []string) (*Coordinates, error)
}

// Scheduler hands the next backlog slice to an asynchronous executor. The
// job queue implements this; tests substitute a recorder.
type Scheduler interface {
	ScheduleSlice(limit, depth, year int) error
}

// SliceStats describes the outcome of one backlog slice.
type SliceStats struct {
	Depth         int      `json:"batch_depth"`
	Processed     int      `json:"processed_in_batch"`
	Geocoded      int      `json:"geocoded"`
	Errors        int      `json:"errors"`
	Remaining     int64    `json:"remaining_to_geocode"`
	NextScheduled bool     `json:"next_batch_triggered"`
	ErrorSamples  []string `json:"error_samples,omitempty"`
}

// Runner drains the geocoding backlog one bounded slice at a time. Records in
// a slice are processed strictly sequentially because the geocoding service
// enforces a single global rate limit. Every processed record gets its
// attempt marker set, so a rerun never picks the same record twice; the depth
// ceiling caps slice-to-slice continuation.
type Runner struct {
	repo       repository.BrevetRepository
	resolver   Resolver
	scheduler  Scheduler
	sliceLimit int
	maxDepth   int
}

// NewRunner creates a backlog runner. The scheduler is wired afterwards via
// SetScheduler because the job queue that implements it is constructed with a
// reference to the runner.
func NewRunner(repo repository.BrevetRepository, resolver Resolver, cfg *config.Config) *Runner {
	return &Runner{
		repo:       repo,
		resolver:   resolver,
		sliceLimit: cfg.DrainSliceLimit,
		maxDepth:   cfg.DrainMaxDepth,
	}
}

// SetScheduler wires the executor used for slice-to-slice continuation.
func (r *Runner) SetScheduler(s Scheduler) {
	r.scheduler = s
}

// DefaultSliceLimit returns the configured slice size.
func (r *Runner) DefaultSliceLimit() int {
	return r.sliceLimit
}

// RunSlice processes one backlog slice at the given depth. year > 0 restricts
// the backlog to that calendar year. A store error on selection or counting
// aborts the slice; per-record failures are recorded and do not.
func (r *Runner) RunSlice(ctx context.Context, limit, depth, year int) (*SliceStats, error) {
	if limit <= 0 {
		limit = r.sliceLimit
	}
	if depth <= 0 {
		depth = 1
	}
	stats := &SliceStats{Depth: depth}

	brevets, err := r.repo.SelectGeocodeBacklog(limit, year)
	if err != nil {
		return nil, fmt.Errorf("failed to select geocode backlog: %w", err)
	}
	if len(brevets) == 0 {
		log.Info("[GeocodeRunner] Backlog empty, nothing to do")
		return stats, nil
	}
	log.Infof("[GeocodeRunner] Slice %d/%d: %d brevets", depth, r.maxDepth, len(brevets))

	for i := range brevets {
		if err := r.processRecord(ctx, stats, &brevets[i]); err != nil {
			// Context cancelled; leave the record pending for the next run.
			return stats, err
		}
	}

	remaining, err := r.repo.CountGeocodeBacklog(year)
	if err != nil {
		return stats, fmt.Errorf("failed to count geocode backlog: %w", err)
	}
	stats.Remaining = remaining

	switch {
	case remaining == 0:
		log.Info("[GeocodeRunner] Backlog drained")
	case depth >= r.maxDepth:
		log.Warnf("[GeocodeRunner] Depth ceiling %d reached, %d brevets left for a future run", r.maxDepth, remaining)
	case r.scheduler == nil:
		log.Warnf("[GeocodeRunner] No scheduler wired, %d brevets left for a future run", remaining)
	default:
		if err := r.scheduler.ScheduleSlice(limit, depth+1, year); err != nil {
			log.Errorf("[GeocodeRunner] Failed to schedule next slice: %v", err)
		} else {
			stats.NextScheduled = true
			log.Infof("[GeocodeRunner] Scheduled slice %d, %d brevets remaining", depth+1, remaining)
		}
	}

	return stats, nil
}

// processRecord geocodes one backlog record. Only context cancellation is
// returned as an error; everything else is folded into stats.
func (r *Runner) processRecord(ctx context.Context, stats *SliceStats, b *models.Brevet) error {
	stats.Processed++
	now := time.Now().UTC()

	tokens := Normalize(b.City, b.Department, b.Country, b.Region)
	if len(tokens) == 0 {
		// Unusable address; mark attempted so it is not reselected.
		if err := r.repo.MarkGeocodeAttempt(b.ID, now); err != nil {
			r.recordError(stats, b.ID, err)
			return nil
		}
		r.recordError(stats, b.ID, fmt.Errorf("no usable address"))
		return nil
	}

	coords, err := r.resolver.Resolve(ctx, tokens)
	if err != nil {
		return err
	}

	if coords == nil {
		if err := r.repo.MarkGeocodeAttempt(b.ID, now); err != nil {
			r.recordError(stats, b.ID, err)
			return nil
		}
		r.recordError(stats, b.ID, fmt.Errorf("no coordinates found"))
		return nil
	}

	if err := r.repo.UpdateCoordinates(b.ID, coords.Latitude, coords.Longitude, now); err != nil {
		r.recordError(stats, b.ID, err)
		return nil
	}
	stats.Geocoded++
	log.Infof("[GeocodeRunner] Geocoded brevet %d: [%f, %f]", b.ID, coords.Latitude, coords.Longitude)
	return nil
}

func (r *Runner) recordError(stats *SliceStats, id int, err error) {
	stats.Errors++
	log.Warnf("[GeocodeRunner] Brevet %d: %v", id, err)
	if len(stats.ErrorSamples) < maxErrorSamples {
		stats.ErrorSamples = append(stats.ErrorSamples, fmt.Sprintf("brevet %d: %v", id, err))
	}
}
