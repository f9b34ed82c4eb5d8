package repository

import (
	"time"

	"github.com/brm-map/BrevetSync/app/models"
)

// BrevetRepository defines the interface for brevet-related database operations.
//
// The sync reconciler owns the catalog-derived columns through UpsertAll /
// DeleteByIDs / ResetCoordinates; the geocoding runner owns only the
// coordinate and attempt columns through UpdateCoordinates / MarkGeocodeAttempt.
type BrevetRepository interface {
	GetAll() ([]models.Brevet, error)
	GetByID(id int) (*models.Brevet, error)
	ListIDs() ([]int, error)
	Count() (int64, error)
	UpsertAll(brevets []models.Brevet) error
	DeleteByIDs(ids []int) error
	ResetCoordinates(ids []int) error

	// Geocoding backlog: no coordinates, no recorded attempt, usable city.
	// year > 0 restricts to events dated within that calendar year.
	SelectGeocodeBacklog(limit int, year int) ([]models.Brevet, error)
	CountGeocodeBacklog(year int) (int64, error)
	UpdateCoordinates(id int, lat, lon float64, attemptedAt time.Time) error
	MarkGeocodeAttempt(id int, attemptedAt time.Time) error
}

// ClubRepository defines the interface for club-related database operations
type ClubRepository interface {
	GetByCode(code string) (*models.Club, error)
	GetAll() ([]models.Club, error)
	Count() (int64, error)
	UpsertAll(clubs []models.Club) error
}
