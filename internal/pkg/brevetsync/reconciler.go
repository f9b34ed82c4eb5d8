package brevetsync

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/brm-map/BrevetSync/app/models"
	"github.com/brm-map/BrevetSync/app/repository"
	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
)

// maxFailureSamples bounds sample lists in the reconcile result.
const maxFailureSamples = 3

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Fetched         int
	Valid           int
	Excluded        int
	MappingFailures int
	FailureSamples  []string

	ClubsUpserted int
	New           int
	Updated       int
	Unchanged     int
	Deleted       int

	// ResetIDs had their coordinates invalidated by an address change.
	ResetIDs []int
	// NeedsGeocoding lists every record that became eligible for geocoding
	// in this pass (reset records plus address-bearing new ones).
	NeedsGeocoding []int
}

// Reconciler applies a fetched catalog to the store. Each step is
// independently idempotent, so there is no cross-step transaction: a failed
// step aborts the run and a rerun is safe.
type Reconciler struct {
	brevets repository.BrevetRepository
	clubs   repository.ClubRepository
}

// NewReconciler creates a reconciler over the given repositories.
func NewReconciler(repos *repository.Repositories) *Reconciler {
	return &Reconciler{
		brevets: repos.Brevet,
		clubs:   repos.Club,
	}
}

// Reconcile upserts clubs and valid brevets, deletes brevets that left the
// catalog (or were cancelled), and invalidates coordinates of brevets whose
// address changed. Coordinates, attempt markers and GPX metadata are carried
// forward verbatim on upsert; the catalog never supplies them and a blind
// overwrite would erase all previously computed geocoding work.
func (r *Reconciler) Reconcile(records []catalog.Record) (*ReconcileResult, error) {
	result := &ReconcileResult{Fetched: len(records)}

	// Partition and map at the boundary; nothing untyped goes further.
	valid := make([]*models.Brevet, 0, len(records))
	clubs := make([]models.Club, 0)
	seenClubs := make(map[string]bool)
	for i := range records {
		rec := &records[i]
		if rec.IsCancelled() {
			result.Excluded++
			continue
		}
		brevet, err := rec.ToBrevet()
		if err != nil {
			result.MappingFailures++
			if len(result.FailureSamples) < maxFailureSamples {
				result.FailureSamples = append(result.FailureSamples, err.Error())
			}
			log.Warnf("[Reconciler] Skipping unmappable record: %v", err)
			continue
		}
		valid = append(valid, brevet)

		// First-seen-wins per club code.
		if club := rec.ToClub(); club != nil && !seenClubs[club.Code] {
			seenClubs[club.Code] = true
			clubs = append(clubs, *club)
		}
	}
	result.Valid = len(valid)

	// Clubs first: brevets reference them by code.
	if err := r.clubs.UpsertAll(clubs); err != nil {
		return result, fmt.Errorf("failed to upsert clubs: %w", err)
	}
	result.ClubsUpserted = len(clubs)

	existing, err := r.brevets.GetAll()
	if err != nil {
		return result, fmt.Errorf("failed to load existing brevets: %w", err)
	}
	existingByID := make(map[int]*models.Brevet, len(existing))
	for i := range existing {
		existingByID[existing[i].ID] = &existing[i]
	}

	payloads := make([]models.Brevet, 0, len(valid))
	validIDs := make(map[int]bool, len(valid))
	for _, incoming := range valid {
		validIDs[incoming.ID] = true
		prev := existingByID[incoming.ID]
		decision := Detect(incoming, prev)

		payload := *incoming
		if prev != nil {
			// Preserve fields the catalog does not own.
			payload.Latitude = prev.Latitude
			payload.Longitude = prev.Longitude
			payload.LastGeocodeAttempt = prev.LastGeocodeAttempt
			payload.GPXFilePath = prev.GPXFilePath
			payload.GPXUploadedAt = prev.GPXUploadedAt
			payload.GPXFileSize = prev.GPXFileSize
			payload.CreatedAt = prev.CreatedAt
		}
		payloads = append(payloads, payload)

		switch decision.Classification {
		case ClassificationNew:
			result.New++
			if decision.AddressChanged {
				result.NeedsGeocoding = append(result.NeedsGeocoding, incoming.ID)
			}
		case ClassificationChanged:
			result.Updated++
			log.Infof("[Reconciler] Brevet %d changed: %v", incoming.ID, decision.ChangedFields)
			if decision.AddressChanged {
				result.ResetIDs = append(result.ResetIDs, incoming.ID)
				result.NeedsGeocoding = append(result.NeedsGeocoding, incoming.ID)
			}
		default:
			result.Unchanged++
		}
	}

	if err := r.brevets.UpsertAll(payloads); err != nil {
		return result, fmt.Errorf("failed to upsert brevets: %w", err)
	}

	// Delete everything no longer in the valid set (gone upstream or
	// cancelled). Clubs are never deleted.
	storedIDs, err := r.brevets.ListIDs()
	if err != nil {
		return result, fmt.Errorf("failed to list stored brevets: %w", err)
	}
	var obsolete []int
	for _, id := range storedIDs {
		if !validIDs[id] {
			obsolete = append(obsolete, id)
		}
	}
	if err := r.brevets.DeleteByIDs(obsolete); err != nil {
		return result, fmt.Errorf("failed to delete obsolete brevets: %w", err)
	}
	result.Deleted = len(obsolete)

	// Address changes invalidate stored coordinates so the backlog picks the
	// record up again (reset-then-recompute).
	if err := r.brevets.ResetCoordinates(result.ResetIDs); err != nil {
		return result, fmt.Errorf("failed to reset coordinates: %w", err)
	}

	log.Infof("[Reconciler] fetched=%d valid=%d excluded=%d new=%d updated=%d unchanged=%d deleted=%d reset=%d",
		result.Fetched, result.Valid, result.Excluded, result.New, result.Updated,
		result.Unchanged, result.Deleted, len(result.ResetIDs))
	return result, nil
}
