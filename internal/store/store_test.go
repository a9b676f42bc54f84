// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lessonpress/internal/database"
	"lessonpress/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "lessonpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "lessonpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testSection creates a section with a random high number so parallel
// packages sharing the database do not collide. It is removed on cleanup
// together with its lessons.
func testSection(t *testing.T, db *sql.DB, slug string) *models.Section {
	t.Helper()
	s := NewSectionStore(db)
	sec, err := s.Create(context.Background(), &models.Section{
		Number: 100000 + rand.IntN(900000),
		Title:  "Test " + slug,
		Slug:   slug,
	})
	if err != nil {
		t.Fatalf("create test section: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM sections WHERE id = $1", sec.ID) })
	return sec
}
