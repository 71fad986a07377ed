package main

import (
	"context"
	"time"
)

// SightingRepository implements the sighting lifecycle on top of a Store.
type SightingRepository struct {
	store Store
	now   func() time.Time
}

// NewSightingRepository creates a SightingRepository backed by store.
func NewSightingRepository(store Store) *SightingRepository {
	return &SightingRepository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new sighting and acknowledges it with the assigned id.
func (r *SightingRepository) Create(ctx context.Context, req CreateSightingRequest) (*InsertResult, error) {
	s := newSighting(req.Description, req.Food)
	s.Datetime = parseDatetime(req.Datetime, r.now())

	id, err := r.store.Insert(ctx, s)
	if err != nil {
		return nil, err
	}
	return &InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// Search returns every sighting matching filter.
func (r *SightingRepository) Search(ctx context.Context, filter SearchFilter) ([]*Sighting, error) {
	sightings, err := r.store.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if sightings == nil {
		sightings = []*Sighting{}
	}
	return sightings, nil
}

// Update replaces the fields of the sighting with id. It succeeds when no
// sighting has that id.
func (r *SightingRepository) Update(ctx context.Context, id string, req UpdateSightingRequest) error {
	if err := r.store.ValidateID(id); err != nil {
		return err
	}
	s := newSighting(req.Description, req.Food)
	s.ID = id
	s.Datetime = parseDatetime(req.Datetime, r.now())
	return r.store.Update(ctx, id, s)
}

// Delete removes the sighting with id. It succeeds when no sighting has that id.
func (r *SightingRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.ValidateID(id); err != nil {
		return err
	}
	return r.store.Delete(ctx, id)
}

func newSighting(description *string, food []string) *Sighting {
	s := &Sighting{Food: []string{}}
	if description != nil {
		s.Description = *description
	}
	if food != nil {
		s.Food = append(s.Food, food...)
	}
	return s
}
