package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brm-map/BrevetSync/app/models"
)

// brevetRepository implements the BrevetRepository interface
type brevetRepository struct {
	db *gorm.DB
}

// NewBrevetRepository creates a new brevet repository instance
func NewBrevetRepository(db *gorm.DB) BrevetRepository {
	return &brevetRepository{db: db}
}

// GetAll retrieves every stored brevet
func (r *brevetRepository) GetAll() ([]models.Brevet, error) {
	var brevets []models.Brevet
	err := r.db.Find(&brevets).Error
	return brevets, err
}

// GetByID retrieves a brevet by its catalog-assigned ID
func (r *brevetRepository) GetByID(id int) (*models.Brevet, error) {
	var brevet models.Brevet
	err := r.db.First(&brevet, id).Error
	if err != nil {
		return nil, err
	}
	return &brevet, nil
}

// ListIDs returns the IDs of all stored brevets
func (r *brevetRepository) ListIDs() ([]int, error) {
	var ids []int
	err := r.db.Model(&models.Brevet{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// Count returns the total number of stored brevets
func (r *brevetRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Brevet{}).Count(&count).Error
	return count, err
}

// UpsertAll inserts or replaces brevets in one batch keyed on id
func (r *brevetRepository) UpsertAll(brevets []models.Brevet) error {
	if len(brevets) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&brevets).Error
}

// DeleteByIDs removes the given brevets from the store
func (r *brevetRepository) DeleteByIDs(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Delete(&models.Brevet{}, ids).Error
}

// ResetCoordinates nulls out coordinates and the attempt marker so the given
// brevets become eligible for a fresh geocoding attempt
func (r *brevetRepository) ResetCoordinates(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Brevet{}).Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"latitude":             nil,
			"longitude":            nil,
			"last_geocode_attempt": nil,
		}).Error
}

// backlogQuery scopes to brevets that still need a geocoding attempt
func (r *brevetRepository) backlogQuery(year int) *gorm.DB {
	q := r.db.Model(&models.Brevet{}).
		Where("latitude IS NULL").
		Where("last_geocode_attempt IS NULL").
		Where("city IS NOT NULL AND city <> '' AND city <> ?", models.CityNotDetermined)
	if year > 0 {
		start := fmt.Sprintf("%d-01-01", year)
		end := fmt.Sprintf("%d-12-31", year)
		q = q.Where("event_date BETWEEN ? AND ?", start, end)
	}
	return q
}

// SelectGeocodeBacklog returns up to limit backlog brevets ordered by id
func (r *brevetRepository) SelectGeocodeBacklog(limit int, year int) ([]models.Brevet, error) {
	var brevets []models.Brevet
	err := r.backlogQuery(year).Order("id").Limit(limit).Find(&brevets).Error
	return brevets, err
}

// CountGeocodeBacklog returns the number of brevets still needing an attempt
func (r *brevetRepository) CountGeocodeBacklog(year int) (int64, error) {
	var count int64
	err := r.backlogQuery(year).Count(&count).Error
	return count, err
}

// UpdateCoordinates persists a successful geocoding result together with the
// attempt marker
func (r *brevetRepository) UpdateCoordinates(id int, lat, lon float64, attemptedAt time.Time) error {
	return r.db.Model(&models.Brevet{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"latitude":             lat,
			"longitude":            lon,
			"last_geocode_attempt": attemptedAt,
		}).Error
}

// MarkGeocodeAttempt records a failed or skipped attempt so the brevet is not
// retried until its address changes again
func (r *brevetRepository) MarkGeocodeAttempt(id int, attemptedAt time.Time) error {
	return r.db.Model(&models.Brevet{}).Where("id = ?", id).
		Update("last_geocode_attempt", attemptedAt).Error
}
