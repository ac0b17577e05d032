package enrich

import (
	"context"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/store"
)

// ContactTarget enriches contacts that have a city or a country but no coordinates.
type ContactTarget struct {
	store *store.Store
}

func NewContactTarget(s *store.Store) *ContactTarget {
	return &ContactTarget{store: s}
}

func (t *ContactTarget) Kind() string { return "contacts" }

func (t *ContactTarget) Pending(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	rows, err := t.store.ContactsMissingCoordinates(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

func (t *ContactTarget) Remaining(ctx context.Context, userID string) (int, error) {
	return t.store.CountContactsMissingCoordinates(ctx, userID)
}

func (t *ContactTarget) SetCoordinates(ctx context.Context, userID string, id int64, lat, lng float64) (bool, error) {
	n, err := t.store.SetContactCoordinates(ctx, userID, id, lat, lng)
	return n > 0, err
}

// TripTarget enriches trips without coordinates.
type TripTarget struct {
	store *store.Store
}

func NewTripTarget(s *store.Store) *TripTarget {
	return &TripTarget{store: s}
}

func (t *TripTarget) Kind() string { return "trips" }

func (t *TripTarget) Pending(ctx context.Context, userID string, limit int) ([]Candidate, error) {
	rows, err := t.store.TripsMissingCoordinates(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

func (t *TripTarget) Remaining(ctx context.Context, userID string) (int, error) {
	return t.store.CountTripsMissingCoordinates(ctx, userID)
}

func (t *TripTarget) SetCoordinates(ctx context.Context, userID string, id int64, lat, lng float64) (bool, error) {
	n, err := t.store.SetTripCoordinates(ctx, userID, id, lat, lng)
	return n > 0, err
}

func toCandidates(rows []store.GeoCandidate) []Candidate {
	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		c := Candidate{Id: row.Id}
		if row.City != nil {
			c.City = *row.City
		}
		if row.Country != nil {
			c.Country = *row.Country
		}
		candidates = append(candidates, c)
	}
	return candidates
}
