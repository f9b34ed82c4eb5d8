package counter

import (
	"context"
	"strconv"

	"github.com/brm-map/BrevetSync/internal/pkg/cache"
)

const pipelineStatsKey = "brevetsync:counters"

const (
	FieldSyncRuns        = "sync_runs"
	FieldGeocodeSuccess  = "geocode_success"
	FieldGeocodeFailure  = "geocode_failure"
	FieldSlicesProcessed = "slices_processed"
)

// AddSyncRun increments the cumulative sync run counter in Redis
func AddSyncRun() error {
	return incr(FieldSyncRuns, 1)
}

// AddGeocodeOutcome records the outcome counts of one drained slice
func AddGeocodeOutcome(success, failure int) error {
	if err := incr(FieldSlicesProcessed, 1); err != nil {
		return err
	}
	if err := incr(FieldGeocodeSuccess, int64(success)); err != nil {
		return err
	}
	return incr(FieldGeocodeFailure, int64(failure))
}

// GetAll returns all cumulative pipeline counters
func GetAll() (map[string]int64, error) {
	rdb := cache.GetClient()
	if rdb == nil {
		return map[string]int64{}, nil
	}
	raw, err := rdb.HGetAll(context.Background(), pipelineStatsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, val := range raw {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			out[field] = n
		}
	}
	return out, nil
}

func incr(field string, delta int64) error {
	rdb := cache.GetClient()
	if rdb == nil {
		// Cache not configured (tests, degraded mode); counters are advisory.
		return nil
	}
	return rdb.HIncrBy(context.Background(), pipelineStatsKey, field, delta).Err()
}
