package main

import (
	"encoding/json"
	"time"
)

// Sighting is a single report of food availability.
type Sighting struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Food        []string  `json:"food"`
	Datetime    time.Time `json:"datetime"`
}

// CreateSightingRequest is the payload for reporting a new sighting.
// Every field is optional; Datetime is kept raw so that both date strings
// and epoch milliseconds can be accepted.
type CreateSightingRequest struct {
	Description *string         `json:"description"`
	Food        []string        `json:"food"`
	Datetime    json.RawMessage `json:"datetime"`
}

// UpdateSightingRequest is the payload for replacing an existing sighting.
type UpdateSightingRequest struct {
	Description *string         `json:"description"`
	Food        []string        `json:"food"`
	Datetime    json.RawMessage `json:"datetime"`
}

// SearchFilter selects sightings. Empty fields impose no constraint.
type SearchFilter struct {
	// Description is matched as a case-insensitive substring.
	Description string
	// Food must equal one element of the sighting's food list.
	Food string
}

// InsertResult acknowledges a successful insert.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}
