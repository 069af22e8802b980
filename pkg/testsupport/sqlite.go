package testsupport

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

//go:embed seed/*.json
var seedFS embed.FS

// OpenSQLite opens a private in-memory sqlite database that lives until the
// test ends. Each call gets its own database.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// one connection keeps the in-memory database alive and serializes access
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SeededSQLite opens a private database with the Trillig, Brillig and
// Moamrath tables created and seeded.
func SeededSQLite(t testing.TB) *bun.DB {
	t.Helper()

	db := OpenSQLite(t)
	Seed(t, db)
	return db
}

// Seed creates the fixture tables on db and loads the seed rows.
func Seed(t testing.TB, db bun.IDB) {
	t.Helper()

	ctx := context.Background()
	seedTable[Trillig](t, ctx, db, "seed/trilligs.json")
	seedTable[Brillig](t, ctx, db, "seed/brilligs.json")
	seedTable[Moamrath](t, ctx, db, "seed/moamraths.json")
}

// SeedRows returns the seed rows of T as stored in the fixture files.
func SeedRows[T any](t testing.TB, path string) []T {
	t.Helper()

	data, err := seedFS.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read seed %s: %v", path, err)
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("failed to decode seed %s: %v", path, err)
	}
	return rows
}

func seedTable[T any](t testing.TB, ctx context.Context, db bun.IDB, path string) {
	t.Helper()

	if _, err := db.NewCreateTable().Model((*T)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("failed to create table for %s: %v", path, err)
	}

	rows := SeedRows[T](t, path)
	if len(rows) == 0 {
		return
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		t.Fatalf("failed to seed %s: %v", path, err)
	}
}
