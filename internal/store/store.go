// Package store provides the SQLite target database for trackerdb exports.
//
// An export artifact is a single SQLite file holding four tables:
//
//   - categories(id, name) with store-assigned ids
//   - companies(id, name, ...) keyed by the organization spec id
//   - trackers(id, name, category_id, company_id, ...) keyed by the pattern spec id
//   - tracker_domains(tracker, domain), one row per domain of a tracker
//
// The schema is created by the embedded migrations (see Migrate). The store
// is written by a single goroutine; the connection pool is capped at one
// connection so that per-connection pragmas hold for every statement.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection of one export artifact.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database file at path.
//
// The parent directory is created if needed. Foreign keys are enforced.
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// New wraps an existing connection. It is used with test doubles; no
// pragmas are applied.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Remove deletes a previous artifact at path together with its SQLite
// journal files. A missing file is not an error.
func Remove(path string) error {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	return nil
}

// Category is a row of the categories table.
type Category struct {
	ID   int64
	Name string
}

// Company is a row of the companies table.
type Company struct {
	ID             string
	Name           string
	Description    sql.NullString
	PrivacyURL     sql.NullString
	WebsiteURL     sql.NullString
	Country        sql.NullString
	PrivacyContact sql.NullString
	Notes          sql.NullString
	GhosteryID     string
}

// Tracker is a row of the trackers table.
type Tracker struct {
	ID         string
	Name       string
	CategoryID int64
	WebsiteURL sql.NullString
	CompanyID  sql.NullString
	Notes      sql.NullString
	Alias      sql.NullString
	GhosteryID string
}

// InsertCategory adds a category. Its id is assigned by the database.
func (db *DB) InsertCategory(ctx context.Context, name string) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("failed to insert category %q: %w", name, err)
	}
	return nil
}

// Categories returns every category in insertion order.
func (db *DB) Categories(ctx context.Context) ([]Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// InsertCompany adds a company row.
func (db *DB) InsertCompany(ctx context.Context, c *Company) error {
	query := `
	INSERT INTO companies (
		id, name, description, privacy_url, website_url,
		country, privacy_contact, notes, ghostery_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		c.PrivacyURL,
		c.WebsiteURL,
		c.Country,
		c.PrivacyContact,
		c.Notes,
		c.GhosteryID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company %s: %w", c.ID, err)
	}
	return nil
}

// Companies returns every company in insertion order.
func (db *DB) Companies(ctx context.Context) ([]Company, error) {
	query := `
	SELECT id, name, description, privacy_url, website_url,
	       country, privacy_contact, notes, ghostery_id
	FROM companies
	ORDER BY rowid
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.PrivacyURL,
			&c.WebsiteURL,
			&c.Country,
			&c.PrivacyContact,
			&c.Notes,
			&c.GhosteryID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}
	return companies, nil
}

// InsertTracker adds a tracker row. CategoryID must reference an existing
// category and a valid CompanyID an existing company.
func (db *DB) InsertTracker(ctx context.Context, t *Tracker) error {
	query := `
	INSERT INTO trackers (
		id, name, category_id, website_url, company_id,
		notes, alias, ghostery_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		t.ID,
		t.Name,
		t.CategoryID,
		t.WebsiteURL,
		t.CompanyID,
		t.Notes,
		t.Alias,
		t.GhosteryID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracker %s: %w", t.ID, err)
	}
	return nil
}

// InsertTrackerDomain associates a domain with a tracker.
func (db *DB) InsertTrackerDomain(ctx context.Context, trackerID, domain string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tracker_domains (tracker, domain) VALUES (?, ?)`, trackerID, domain)
	if err != nil {
		return fmt.Errorf("failed to insert domain %s for tracker %s: %w", domain, trackerID, err)
	}
	return nil
}

// TrackerDomains returns the domains of a tracker in insertion order.
func (db *DB) TrackerDomains(ctx context.Context, trackerID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT domain FROM tracker_domains WHERE tracker = ? ORDER BY rowid`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains of tracker %s: %w", trackerID, err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}
	return domains, nil
}

// GetTrackerByID retrieves a single tracker.
// Returns sql.ErrNoRows if the tracker is not found.
func (db *DB) GetTrackerByID(ctx context.Context, id string) (*Tracker, error) {
	query := `
	SELECT id, name, category_id, website_url, company_id,
	       notes, alias, ghostery_id
	FROM trackers
	WHERE id = ?
	`
	var t Tracker
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.CategoryID,
		&t.WebsiteURL,
		&t.CompanyID,
		&t.Notes,
		&t.Alias,
		&t.GhosteryID,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Counts holds the number of rows in each exported table.
type Counts struct {
	Categories     int
	Companies      int
	Trackers       int
	TrackerDomains int
}

// Counts returns the row count of every exported table.
func (db *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"categories", &c.Categories},
		{"companies", &c.Companies},
		{"trackers", &c.Trackers},
		{"tracker_domains", &c.TrackerDomains},
	}
	for _, target := range targets {
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+target.table).Scan(target.dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", target.table, err)
		}
	}
	return c, nil
}
