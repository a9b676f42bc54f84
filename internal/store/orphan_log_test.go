// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestOrphanLogStore(t *testing.T) {
	db := testDB(t)
	s := NewOrphanLogStore(db)
	ctx := context.Background()

	id := uuid.New()
	t.Cleanup(func() {
		db.Exec("DELETE FROM orphaned_images WHERE entity_id = $1", id)
	})

	s.Record(ctx, "lesson", id, []string{"a.png", "b.png"}, errors.New("bucket unavailable"))

	entries, err := s.Recent(ctx, 50)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var found bool
	for _, e := range entries {
		if e.EntityID != id {
			continue
		}
		found = true
		if e.EntityType != "lesson" || e.Error != "bucket unavailable" {
			t.Errorf("entry = %+v", e)
		}
		if !reflect.DeepEqual(e.Keys, []string{"a.png", "b.png"}) {
			t.Errorf("Keys = %v", e.Keys)
		}
		if e.RecordedAt.IsZero() {
			t.Error("RecordedAt not set")
		}
	}
	if !found {
		t.Error("recorded entry not returned by Recent")
	}
}

func TestOrphanLogStoreBestEffort(t *testing.T) {
	db := testDB(t)
	s := NewOrphanLogStore(db)

	// Violates the entity_type check; must not panic or return.
	s.Record(context.Background(), "template", uuid.New(), []string{"x"}, errors.New("e"))
}
