package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brm-map/BrevetSync/app/models"
)

// Record is one raw catalog entry with the API's own field names. Numeric
// fields arrive as strings in some catalog revisions and as numbers in
// others, so they are declared as json.Number and parsed during mapping.
type Record struct {
	ID                 int         `json:"id"`
	ClubCode           string      `json:"codeClub"`
	ClubName           *string     `json:"nomclub"`
	ClubWebsite        *string     `json:"clubwebsite"`
	RepresentativeName *string     `json:"representant_acp"`
	RepresentativeMail *string     `json:"email_representant_acp"`
	OrganizerName      *string     `json:"nomorganisateur"`
	OrganizerEmail     *string     `json:"mailorganisateur"`
	Distance           json.Number `json:"distance"`
	Date               string      `json:"date"` // DD/MM/YYYY
	Elevation          json.Number `json:"denivele"`
	R10000             int         `json:"r10000"`
	City               *string     `json:"ville"`
	Department         *string     `json:"departement"`
	Region             *string     `json:"region"`
	Country            *string     `json:"pays"`
	HomologationAccess int         `json:"acces_homologations"`
	MapLink            *string     `json:"maplink"`
	Name               *string     `json:"nom"`
	Status             string      `json:"statut"`
}

// IsCancelled reports whether the record carries the upstream cancellation
// sentinel.
func (r *Record) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// ToBrevet maps the raw record into the store model. Coordinates, the attempt
// marker and GPX metadata are never part of the catalog and stay nil here;
// the reconciler carries existing values forward.
func (r *Record) ToBrevet() (*models.Brevet, error) {
	eventDate, err := parseCatalogDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", r.ID, err)
	}

	brevet := &models.Brevet{
		ID:                 r.ID,
		ClubID:             nonEmpty(r.ClubCode),
		OrganizerName:      cleanPtr(r.OrganizerName),
		OrganizerEmail:     cleanPtr(r.OrganizerEmail),
		Distance:           parseNumber(r.Distance),
		EventDate:          eventDate,
		Elevation:          parseNumber(r.Elevation),
		EligibleR10000:     r.R10000 == 1,
		City:               cleanPtr(r.City),
		Department:         cleanPtr(r.Department),
		Region:             cleanPtr(r.Region),
		Country:            cleanPtr(r.Country),
		HomologationAccess: r.HomologationAccess == 1,
		RouteLink:          cleanPtr(r.MapLink),
		Name:               cleanPtr(r.Name),
	}

	if err := brevet.Validate(); err != nil {
		return nil, fmt.Errorf("record %d: %w", r.ID, err)
	}
	return brevet, nil
}

// ToClub derives the organizing club carried on this record. Returns nil when
// the record has no club code.
func (r *Record) ToClub() *models.Club {
	code := strings.TrimSpace(r.ClubCode)
	if code == "" {
		return nil
	}
	return &models.Club{
		Code:               code,
		Name:               cleanPtr(r.ClubName),
		Country:            cleanPtr(r.Country),
		RepresentativeName: cleanPtr(r.RepresentativeName),
		RepresentativeMail: cleanPtr(r.RepresentativeMail),
		Website:            cleanPtr(r.ClubWebsite),
	}
}

// parseCatalogDate converts the catalog's DD/MM/YYYY format.
func parseCatalogDate(s string) (time.Time, error) {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date %q: %w", s, err)
	}
	return t, nil
}

func parseNumber(n json.Number) *int {
	if n.String() == "" {
		return nil
	}
	v, err := n.Int64()
	if err != nil {
		// some revisions send decimals for elevation
		f, ferr := n.Float64()
		if ferr != nil {
			return nil
		}
		v = int64(f)
	}
	i := int(v)
	return &i
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
