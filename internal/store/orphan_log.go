// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OrphanEntry is a failed image purge: keys that were left in the bucket
// after their lesson or section was deleted.
type OrphanEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Keys       []string  `json:"keys"`
	Error      string    `json:"error"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OrphanLogStore records image purges that failed so the objects can be
// cleaned up later.
type OrphanLogStore struct {
	db *sql.DB
}

// NewOrphanLogStore creates a new OrphanLogStore.
func NewOrphanLogStore(db *sql.DB) *OrphanLogStore {
	return &OrphanLogStore{db: db}
}

// Record stores a failed purge. It is best-effort: errors are logged, not
// returned, since the delete it belongs to has already succeeded.
func (s *OrphanLogStore) Record(ctx context.Context, entityType string, entityID uuid.UUID, keys []string, cause error) {
	payload, err := json.Marshal(keys)
	if err == nil {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO orphaned_images (entity_type, entity_id, keys, error)
			VALUES ($1, $2, $3, $4)
		`, entityType, entityID, payload, cause.Error())
	}
	if err != nil {
		slog.Warn("failed to record orphaned images",
			"entity_type", entityType,
			"entity_id", entityID,
			"keys", len(keys),
			"error", err,
		)
		return
	}
	slog.Info("orphaned images recorded",
		"entity_type", entityType,
		"entity_id", entityID,
		"keys", len(keys),
	)
}

// Recent returns the most recent entries, newest first.
func (s *OrphanLogStore) Recent(ctx context.Context, limit int) ([]OrphanEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, keys, error, recorded_at
		FROM orphaned_images
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orphaned images: %w", err)
	}
	defer rows.Close()

	entries := []OrphanEntry{}
	for rows.Next() {
		var e OrphanEntry
		var keys []byte
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &keys, &e.Error, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan orphaned images: %w", err)
		}
		if err := json.Unmarshal(keys, &e.Keys); err != nil {
			return nil, fmt.Errorf("decode orphaned keys: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
