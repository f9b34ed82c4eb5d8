package brevetsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brm-map/BrevetSync/app/models"
	"github.com/brm-map/BrevetSync/app/repository"
	"github.com/brm-map/BrevetSync/internal/pkg/catalog"
)

// fakeBrevetRepo is an in-memory BrevetRepository mirroring the SQL backlog
// semantics closely enough for reconciler and service tests.
type fakeBrevetRepo struct {
	brevets map[int]*models.Brevet
	order   []int
}

func newFakeBrevetRepo() *fakeBrevetRepo {
	return &fakeBrevetRepo{brevets: make(map[int]*models.Brevet)}
}

func (s *fakeBrevetRepo) GetAll() ([]models.Brevet, error) {
	var out []models.Brevet
	for _, id := range s.order {
		out = append(out, *s.brevets[id])
	}
	return out, nil
}

func (s *fakeBrevetRepo) GetByID(id int) (*models.Brevet, error) {
	b, ok := s.brevets[id]
	if !ok {
		return nil, fmt.Errorf("brevet %d not found", id)
	}
	copied := *b
	return &copied, nil
}

func (s *fakeBrevetRepo) ListIDs() ([]int, error) {
	return append([]int(nil), s.order...), nil
}

func (s *fakeBrevetRepo) Count() (int64, error) {
	return int64(len(s.order)), nil
}

func (s *fakeBrevetRepo) UpsertAll(brevets []models.Brevet) error {
	for i := range brevets {
		b := brevets[i]
		if _, ok := s.brevets[b.ID]; !ok {
			s.order = append(s.order, b.ID)
		}
		s.brevets[b.ID] = &b
	}
	return nil
}

func (s *fakeBrevetRepo) DeleteByIDs(ids []int) error {
	for _, id := range ids {
		delete(s.brevets, id)
	}
	var kept []int
	for _, id := range s.order {
		if _, ok := s.brevets[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

func (s *fakeBrevetRepo) ResetCoordinates(ids []int) error {
	for _, id := range ids {
		if b, ok := s.brevets[id]; ok {
			b.Latitude = nil
			b.Longitude = nil
			b.LastGeocodeAttempt = nil
		}
	}
	return nil
}

func (s *fakeBrevetRepo) inBacklog(b *models.Brevet, year int) bool {
	if b.Latitude != nil || b.LastGeocodeAttempt != nil {
		return false
	}
	if b.City == nil || *b.City == "" || *b.City == models.CityNotDetermined {
		return false
	}
	if year > 0 && b.EventDate.Year() != year {
		return false
	}
	return true
}

func (s *fakeBrevetRepo) SelectGeocodeBacklog(limit int, year int) ([]models.Brevet, error) {
	var out []models.Brevet
	for _, id := range s.order {
		if len(out) >= limit {
			break
		}
		if s.inBacklog(s.brevets[id], year) {
			out = append(out, *s.brevets[id])
		}
	}
	return out, nil
}

func (s *fakeBrevetRepo) CountGeocodeBacklog(year int) (int64, error) {
	var n int64
	for _, id := range s.order {
		if s.inBacklog(s.brevets[id], year) {
			n++
		}
	}
	return n, nil
}

func (s *fakeBrevetRepo) UpdateCoordinates(id int, lat, lon float64, attemptedAt time.Time) error {
	b, ok := s.brevets[id]
	if !ok {
		return fmt.Errorf("brevet %d not found", id)
	}
	b.Latitude = &lat
	b.Longitude = &lon
	b.LastGeocodeAttempt = &attemptedAt
	return nil
}

func (s *fakeBrevetRepo) MarkGeocodeAttempt(id int, attemptedAt time.Time) error {
	b, ok := s.brevets[id]
	if !ok {
		return fmt.Errorf("brevet %d not found", id)
	}
	b.LastGeocodeAttempt = &attemptedAt
	return nil
}

type fakeClubRepo struct {
	clubs map[string]*models.Club
}

func newFakeClubRepo() *fakeClubRepo {
	return &fakeClubRepo{clubs: make(map[string]*models.Club)}
}

func (s *fakeClubRepo) GetByCode(code string) (*models.Club, error) {
	c, ok := s.clubs[code]
	if !ok {
		return nil, fmt.Errorf("club %s not found", code)
	}
	copied := *c
	return &copied, nil
}

func (s *fakeClubRepo) GetAll() ([]models.Club, error) {
	var out []models.Club
	for _, c := range s.clubs {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeClubRepo) Count() (int64, error) {
	return int64(len(s.clubs)), nil
}

func (s *fakeClubRepo) UpsertAll(clubs []models.Club) error {
	for i := range clubs {
		c := clubs[i]
		s.clubs[c.Code] = &c
	}
	return nil
}

func newFakeRepositories() (*repository.Repositories, *fakeBrevetRepo, *fakeClubRepo) {
	brevets := newFakeBrevetRepo()
	clubs := newFakeClubRepo()
	return &repository.Repositories{Brevet: brevets, Club: clubs}, brevets, clubs
}

// catalogRecord builds a well-formed raw record for test inputs.
func catalogRecord(id int, city string) catalog.Record {
	clubName := "Audax Randonneurs"
	organizer := "Alex Martin"
	email := "alex@example.org"
	department := "Île-de-France"
	country := "France"
	name := fmt.Sprintf("BRM %d", id)
	rec := catalog.Record{
		ID:             id,
		ClubCode:       "113000",
		ClubName:       &clubName,
		OrganizerName:  &organizer,
		OrganizerEmail: &email,
		Distance:       json.Number("200"),
		Date:           "12/04/2026",
		Elevation:      json.Number("1800"),
		Department:     &department,
		Country:        &country,
		Name:           &name,
		Status:         "Inscription ouverte",
	}
	if city != "" {
		c := city
		rec.City = &c
	}
	return rec
}

func strPtr(s string) *string {
	return &s
}

func intPtr(n int) *int {
	return &n
}

func int64Ptr(n int64) *int64 {
	return &n
}

func floatPtr(f float64) *float64 {
	return &f
}
