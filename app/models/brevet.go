package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CityNotDetermined is the sentinel the catalog uses for events whose start
// city has not been announced yet. Such events must never be geocoded.
const CityNotDetermined = "Pas encore déterminée"

// Brevet is one scheduled long-distance cycling event. The ID is assigned by
// the external catalog and used as-is as the primary key.
//
// Latitude/Longitude and LastGeocodeAttempt are owned by the geocoding
// pipeline, the GPX fields by the upload feature; none of them ever come from
// the catalog and a sync must carry them forward unchanged.
type Brevet struct {
	ID                 int        `gorm:"primaryKey;autoIncrement:false" json:"id" validate:"required,gt=0"`
	ClubID             *string    `gorm:"type:varchar(32);index" json:"club_id"`
	Club               *Club      `gorm:"foreignKey:ClubID;references:Code" json:"club,omitempty"`
	OrganizerName      *string    `gorm:"type:varchar(200)" json:"organizer_name"`
	OrganizerEmail     *string    `gorm:"type:varchar(200)" json:"organizer_email" validate:"omitempty,max=200"`
	Distance           *int       `gorm:"type:int" json:"distance"`
	EventDate          time.Time  `gorm:"type:date;index" json:"event_date" validate:"required"`
	Elevation          *int       `gorm:"type:int" json:"elevation"`
	EligibleR10000     bool       `gorm:"default:false" json:"eligible_r10000"`
	City               *string    `gorm:"type:varchar(200);index" json:"city"`
	Department         *string    `gorm:"type:varchar(200)" json:"department"`
	Region             *string    `gorm:"type:varchar(200)" json:"region"`
	Country            *string    `gorm:"type:varchar(200)" json:"country"`
	HomologationAccess bool       `gorm:"default:false" json:"homologation_access"`
	RouteLink          *string    `gorm:"type:varchar(500)" json:"route_link"`
	Name               *string    `gorm:"type:varchar(255)" json:"name"`
	Latitude           *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude          *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	LastGeocodeAttempt *time.Time `gorm:"type:datetime" json:"last_geocode_attempt"`
	// GPX attachment metadata, opaque to the sync pipeline
	GPXFilePath   *string    `gorm:"column:gpx_file_path;type:varchar(255)" json:"gpx_file_path"`
	GPXUploadedAt *time.Time `gorm:"column:gpx_uploaded_at;type:datetime" json:"gpx_uploaded_at"`
	GPXFileSize   *int64     `gorm:"column:gpx_file_size;type:bigint" json:"gpx_file_size"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Brevet) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// HasCoordinates reports whether both latitude and longitude are set. The
// pipeline never writes one without the other.
func (b *Brevet) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// HasUsableCity reports whether the brevet has a start city a geocoder could
// resolve (present and not the catalog's placeholder).
func (b *Brevet) HasUsableCity() bool {
	return b.City != nil && *b.City != "" && *b.City != CityNotDetermined
}
