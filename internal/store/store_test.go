package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// testDBPath returns a temporary path for test databases
func testDBPath(t *testing.T) string {
	tmpDir := t.TempDir()
	return filepath.Join(tmpDir, "test.db")
}

// openMigrated opens a fresh database with the schema applied.
func openMigrated(t *testing.T) *DB {
	t.Helper()
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist", "nested", "out.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	db, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestRemove(t *testing.T) {
	path := testDBPath(t)
	for _, p := range []string{path, path + "-journal"} {
		if err := os.WriteFile(p, []byte("stale"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	for _, p := range []string{path, path + "-journal"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}

	// Removing again is a no-op.
	if err := Remove(path); err != nil {
		t.Errorf("Remove() on missing file failed: %v", err)
	}
}

func TestCategories_StoreAssignsIDs(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	for _, name := range []string{"Advertising", "Site Analytics"} {
		if err := db.InsertCategory(ctx, name); err != nil {
			t.Fatalf("InsertCategory(%q) failed: %v", name, err)
		}
	}

	categories, err := db.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Advertising" || categories[1].Name != "Site Analytics" {
		t.Errorf("unexpected categories: %+v", categories)
	}
	if categories[0].ID == 0 || categories[0].ID == categories[1].ID {
		t.Errorf("expected distinct store-assigned ids, got %+v", categories)
	}
}

func TestCompanies_NullableColumns(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	company := &Company{
		ID:          "acme",
		Name:        "Acme",
		Description: sql.NullString{String: "Makes everything", Valid: true},
	}
	if err := db.InsertCompany(ctx, company); err != nil {
		t.Fatalf("InsertCompany() failed: %v", err)
	}

	companies, err := db.Companies(ctx)
	if err != nil {
		t.Fatalf("Companies() failed: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("expected 1 company, got %d", len(companies))
	}
	got := companies[0]
	if got.ID != "acme" || got.Name != "Acme" {
		t.Errorf("unexpected company: %+v", got)
	}
	if !got.Description.Valid || got.Description.String != "Makes everything" {
		t.Errorf("Description = %+v", got.Description)
	}
	if got.PrivacyURL.Valid || got.Country.Valid || got.Notes.Valid {
		t.Errorf("absent columns should be NULL: %+v", got)
	}
	if got.GhosteryID != "" {
		t.Errorf("GhosteryID = %q, want empty", got.GhosteryID)
	}
}

func TestInsertTracker_ForeignKeys(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	err := db.InsertTracker(ctx, &Tracker{ID: "orphan", Name: "Orphan", CategoryID: 999})
	if err == nil {
		t.Error("expected foreign key failure for unknown category")
	}

	if err := db.InsertCategory(ctx, "Advertising"); err != nil {
		t.Fatalf("InsertCategory() failed: %v", err)
	}
	categories, err := db.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}

	err = db.InsertTracker(ctx, &Tracker{
		ID:         "ghost",
		Name:       "Ghost",
		CategoryID: categories[0].ID,
		CompanyID:  sql.NullString{String: "nobody", Valid: true},
	})
	if err == nil {
		t.Error("expected foreign key failure for unknown company")
	}

	if err := db.InsertTrackerDomain(ctx, "missing", "example.com"); err == nil {
		t.Error("expected foreign key failure for unknown tracker")
	}
}

func TestTrackerRoundTrip(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	if err := db.InsertCategory(ctx, "Advertising"); err != nil {
		t.Fatalf("InsertCategory() failed: %v", err)
	}
	if err := db.InsertCompany(ctx, &Company{ID: "1", Name: "Acme"}); err != nil {
		t.Fatalf("InsertCompany() failed: %v", err)
	}
	categories, _ := db.Categories(ctx)

	tracker := &Tracker{
		ID:         "2",
		Name:       "acme-tracker",
		CategoryID: categories[0].ID,
		CompanyID:  sql.NullString{String: "1", Valid: true},
		Alias:      sql.NullString{String: "acme", Valid: true},
	}
	if err := db.InsertTracker(ctx, tracker); err != nil {
		t.Fatalf("InsertTracker() failed: %v", err)
	}
	for _, d := range []string{"acme.com", "track.acme.com"} {
		if err := db.InsertTrackerDomain(ctx, "2", d); err != nil {
			t.Fatalf("InsertTrackerDomain(%q) failed: %v", d, err)
		}
	}

	got, err := db.GetTrackerByID(ctx, "2")
	if err != nil {
		t.Fatalf("GetTrackerByID() failed: %v", err)
	}
	if got.CategoryID != categories[0].ID || got.CompanyID.String != "1" || got.Alias.String != "acme" {
		t.Errorf("unexpected tracker: %+v", got)
	}
	if got.WebsiteURL.Valid || got.Notes.Valid {
		t.Errorf("absent columns should be NULL: %+v", got)
	}

	if _, err := db.GetTrackerByID(ctx, "nope"); err != sql.ErrNoRows {
		t.Errorf("GetTrackerByID(nope) error = %v, want sql.ErrNoRows", err)
	}

	domains, err := db.TrackerDomains(ctx, "2")
	if err != nil {
		t.Fatalf("TrackerDomains() failed: %v", err)
	}
	if len(domains) != 2 || domains[0] != "acme.com" || domains[1] != "track.acme.com" {
		t.Errorf("domains = %v", domains)
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	want := Counts{Categories: 1, Companies: 1, Trackers: 1, TrackerDomains: 2}
	if counts != want {
		t.Errorf("Counts() = %+v, want %+v", counts, want)
	}
}

func TestInsertCategory_SQL(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer conn.Close()

	db := New(conn)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories (name) VALUES (?)`)).
		WithArgs("Advertising").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Advertising"))

	ctx := context.Background()
	if err := db.InsertCategory(ctx, "Advertising"); err != nil {
		t.Fatalf("InsertCategory() failed: %v", err)
	}
	categories, err := db.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != 1 {
		t.Errorf("unexpected categories: %+v", categories)
	}

	if mockErr := mock.ExpectationsWereMet(); mockErr != nil {
		t.Fatalf("unmet sqlmock expectations: %v", mockErr)
	}
}
