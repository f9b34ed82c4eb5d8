package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brm-map/BrevetSync/app/models"
)

// clubRepository implements the ClubRepository interface
type clubRepository struct {
	db *gorm.DB
}

// NewClubRepository creates a new club repository instance
func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepository{db: db}
}

// GetByCode retrieves a club by its natural key
func (r *clubRepository) GetByCode(code string) (*models.Club, error) {
	var club models.Club
	err := r.db.Where("code = ?", code).First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// GetAll retrieves every stored club
func (r *clubRepository) GetAll() ([]models.Club, error) {
	var clubs []models.Club
	err := r.db.Order("code").Find(&clubs).Error
	return clubs, err
}

// Count returns the total number of stored clubs
func (r *clubRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Club{}).Count(&count).Error
	return count, err
}

// UpsertAll inserts or replaces clubs in one batch keyed on code. Clubs are
// never deleted by the sync pipeline.
func (r *clubRepository) UpsertAll(clubs []models.Club) error {
	if len(clubs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(&clubs).Error
}
