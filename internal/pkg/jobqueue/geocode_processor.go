package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	counter "github.com/brm-map/BrevetSync/internal/pkg/metrics/counter"
)

// EnqueueGeocodeSliceJob enqueues one backlog slice request.
func (q *Queue) EnqueueGeocodeSliceJob(limit, depth, year int) (*Job, error) {
	payload := GeocodeSliceJobPayload{
		Limit: limit,
		Depth: depth,
		Year:  year,
	}
	return q.EnqueueJob(JobTypeGeocodeSlice, payload.ToMap())
}

// ScheduleSlice implements geocode.Scheduler: it hands the next slice to the
// queue without waiting for it to run.
func (q *Queue) ScheduleSlice(limit, depth, year int) error {
	_, err := q.EnqueueGeocodeSliceJob(limit, depth, year)
	return err
}

// processGeocodeSliceJob runs one backlog slice. The runner itself schedules
// the follow-up slice when backlog remains below the depth ceiling, so a
// completed job is terminal for its depth.
func (q *Queue) processGeocodeSliceJob(ctx context.Context, job *Job) error {
	payload, perr := GeocodeSliceJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse geocode slice payload: %w", perr)
	}
	if q.geocodeRunner == nil {
		return fmt.Errorf("geocode runner not configured")
	}

	stats, err := q.geocodeRunner.RunSlice(ctx, payload.Limit, payload.Depth, payload.Year)
	if stats != nil {
		if cerr := counter.AddGeocodeOutcome(stats.Geocoded, stats.Errors); cerr != nil {
			log.Warnf("[GeocodeSliceJob] Failed to update counters: %v", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("geocode slice at depth %d failed: %w", payload.Depth, err)
	}

	log.Infof("[GeocodeSliceJob] Depth %d: processed=%d geocoded=%d errors=%d remaining=%d next=%t",
		stats.Depth, stats.Processed, stats.Geocoded, stats.Errors, stats.Remaining, stats.NextScheduled)
	return nil
}
