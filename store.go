package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store is the document store holding the sightings collection.
// Implementations wrap driver failures in ErrStorage and report malformed
// ids from ValidateID as ErrInvalidIdentifier.
type Store interface {
	// ValidateID reports whether id has the identifier shape the store assigns.
	ValidateID(id string) error
	// Insert stores a new sighting and returns the id assigned to it.
	Insert(ctx context.Context, s *Sighting) (string, error)
	// Find returns the sightings matching filter in insertion order.
	Find(ctx context.Context, filter SearchFilter) ([]*Sighting, error)
	// Update replaces description, food and datetime of the sighting with id.
	// Updating a missing sighting is not an error.
	Update(ctx context.Context, id string, s *Sighting) error
	// Delete removes the sighting with id. Deleting a missing sighting is not an error.
	Delete(ctx context.Context, id string) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// canonicalUUID returns id in the lowercase hyphenated form the UUID backends
// store. Braced, urn:uuid: and unhyphenated spellings map to the same key.
func canonicalUUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return u.String(), nil
}
