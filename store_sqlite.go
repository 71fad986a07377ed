package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore provides sighting persistence in an embedded SQLite database.
// Food lists are stored as JSON arrays and matched with json_each.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db path: %w", ErrStorage, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.Clean(dbPath))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrStorage, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := initSightingsSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStorage, err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSightingsSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sightings (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT    NOT NULL UNIQUE,
			description  TEXT    NOT NULL DEFAULT '',
			food         JSON    NOT NULL DEFAULT '[]',
			datetime     INTEGER NOT NULL
		);
	`)
	return err
}

// ValidateID accepts UUIDs in any spelling uuid.Parse understands.
func (s *SQLiteStore) ValidateID(id string) error {
	_, err := canonicalUUID(id)
	return err
}

// Insert adds a row under a fresh UUID.
func (s *SQLiteStore) Insert(ctx context.Context, sighting *Sighting) (string, error) {
	food, err := json.Marshal(sighting.Food)
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sightings (id, description, food, datetime)
		VALUES (?,?,?,?)
	`, id, sighting.Description, string(food), sighting.Datetime.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("%w: insert: %w", ErrStorage, err)
	}
	sighting.ID = id
	return id, nil
}

// Find returns matching rows in insertion order.
func (s *SQLiteStore) Find(ctx context.Context, filter SearchFilter) ([]*Sighting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, food, datetime
		FROM sightings
		WHERE (? = '' OR instr(lower(description), lower(?)) > 0)
		  AND (? = '' OR EXISTS (SELECT 1 FROM json_each(sightings.food) WHERE json_each.value = ?))
		ORDER BY seq
	`, filter.Description, filter.Description, filter.Food, filter.Food)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}
	defer rows.Close()

	out := []*Sighting{}
	for rows.Next() {
		var (
			sighting Sighting
			food     string
			millis   int64
		)
		if err := rows.Scan(&sighting.ID, &sighting.Description, &food, &millis); err != nil {
			return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
		}
		if err := json.Unmarshal([]byte(food), &sighting.Food); err != nil {
			return nil, fmt.Errorf("%w: find: decode food: %w", ErrStorage, err)
		}
		if sighting.Food == nil {
			sighting.Food = []string{}
		}
		sighting.Datetime = time.UnixMilli(millis).UTC()
		out = append(out, &sighting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStorage, err)
	}
	return out, nil
}

// Update replaces the row with id, leaving its position untouched.
func (s *SQLiteStore) Update(ctx context.Context, id string, sighting *Sighting) error {
	id, err := canonicalUUID(id)
	if err != nil {
		return err
	}
	food, err := json.Marshal(sighting.Food)
	if err != nil {
		return fmt.Errorf("%w: update: %w", ErrStorage, err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE sightings SET description = ?, food = ?, datetime = ?
		WHERE id = ?
	`, sighting.Description, string(food), sighting.Datetime.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("%w: update: %w", ErrStorage, err)
	}
	return nil
}

// Delete removes the row with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	id, err := canonicalUUID(id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sightings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
