package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-review-backend/internal/domain"
)

func openFileDB(t *testing.T, open func(string) (*gorm.DB, error), dsn string) *gorm.DB {
	t.Helper()
	db, err := open(dsn)
	if err != nil {
		t.Fatalf("open %q: %v", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "nope", "catalog.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error for %q, got db=%v err=%v", bad, db, err)
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestOpenSQLite_PragmasAndPool(t *testing.T) {
	db := openFileDB(t, OpenSQLite, filepath.Join(t.TempDir(), "catalog.db"))

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + p.name).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if strings.ToLower(got) != p.want {
			t.Errorf("PRAGMA %s = %q; want %q", p.name, got, p.want)
		}
	}

	sqlDB, _ := db.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != sqlitePool.maxOpen {
		t.Fatalf("MaxOpenConnections = %d; want %d", got, sqlitePool.maxOpen)
	}
}

func TestAutoMigrate_ProductRoundTrip(t *testing.T) {
	db := openFileDB(t, OpenSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, tbl := range []any{&domain.Product{}, &domain.ImageCacheEntry{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Fatalf("missing table for %T", tbl)
		}
	}

	now := time.Now().UTC()
	p := &domain.Product{
		Slug: "shoes/new-balance-574", Name: "New Balance 574", Category: "Shoes",
		ReviewHistory: []domain.ReviewVersion{{Summary: "s", GeneratedAt: now}},
		LastReviewAt:  now, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := FindProduct(context.Background(), db, p.Slug)
	if err != nil || got.Name != p.Name || len(got.ReviewHistory) != 1 {
		t.Fatalf("readback: err=%v got=%+v", err, got)
	}
}

func TestOpen_SQLiteScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "via-scheme.db")
	openFileDB(t, Open, "sqlite://"+path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file at %q: %v", path, err)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	for dsn, want := range map[string]bool{
		"postgres://u:p@h/db":   true,
		"postgresql://h/db":     true,
		"data/catalog.db":       false,
		"sqlite://data/app.db":  false,
		"mongodb://h:27017/rev": false,
		"":                      false,
	} {
		if got := IsPostgresDSN(dsn); got != want {
			t.Errorf("IsPostgresDSN(%q) = %v; want %v", dsn, got, want)
		}
	}
}
