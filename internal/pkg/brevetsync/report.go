package brevetsync

import "time"

// SyncReport is the structured result of one sync run, returned to the
// caller synchronously. Geocoding outcomes are not part of it: the backlog
// drain runs asynchronously and reports per-slice, so the sync report only
// carries the backlog size and whether a drain was kicked off.
type SyncReport struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Duration  string    `json:"duration"`
	Stats     SyncStats `json:"stats"`
}

// SyncStats groups the run counters the way the report consumers read them.
type SyncStats struct {
	Catalog   CatalogStats   `json:"catalog"`
	Database  DatabaseStats  `json:"database"`
	Geocoding GeocodingStats `json:"geocoding"`
}

type CatalogStats struct {
	Fetched         int      `json:"total_fetched"`
	Valid           int      `json:"valid_processed"`
	Excluded        int      `json:"cancelled_excluded"`
	MappingFailures int      `json:"mapping_failures"`
	FailureSamples  []string `json:"failure_samples,omitempty"`
}

type DatabaseStats struct {
	ClubsUpserted int `json:"clubs_upserted"`
	New           int `json:"brevets_new"`
	Updated       int `json:"brevets_updated"`
	Unchanged     int `json:"brevets_unchanged"`
	Deleted       int `json:"brevets_deleted"`
}

type GeocodingStats struct {
	Backlog          int64 `json:"backlog"`
	CoordinatesReset int   `json:"coordinates_reset"`
	ResetIDs         []int `json:"reset_ids,omitempty"`
	DrainTriggered   bool  `json:"drain_triggered"`
}
