package store

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one numbered schema change.
type Migration struct {
	ID   int
	Name string
	Up   string
	Down string
}

var (
	migrationName = regexp.MustCompile(`^(\d+)[-_](.+)\.sql$`)
	sectionMarker = regexp.MustCompile(`(?i)^--\s*(up|down)\s*$`)
)

// Migrations returns the embedded schema migrations in id order.
func Migrations() ([]Migration, error) {
	return LoadMigrations(migrationFiles, "migrations")
}

// LoadMigrations reads NNN-name.sql files from dir. Each file holds an
// "-- Up" section and an optional "-- Down" section; a file without markers
// is all Up.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := migrationName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid migration id in %s: %w", entry.Name(), err)
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate migration id %d (%s and %s)", id, prev, entry.Name())
		}
		seen[id] = entry.Name()

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		up, down := splitSections(string(data))
		migrations = append(migrations, Migration{ID: id, Name: m[2], Up: up, Down: down})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

// splitSections separates the Up and Down parts of a migration file.
func splitSections(src string) (up, down string) {
	var upB, downB strings.Builder
	current := &upB
	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		if m := sectionMarker.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if strings.EqualFold(m[1], "down") {
				current = &downB
			} else {
				current = &upB
			}
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	return strings.TrimSpace(upB.String()), strings.TrimSpace(downB.String())
}

// SplitStatements splits a semicolon-terminated SQL script into executable
// statements, dropping blank lines and "--" comment lines.
func SplitStatements(script string) []string {
	scanner := bufio.NewScanner(strings.NewReader(script))
	var stmts []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				stmts = append(stmts, stmt)
			}
			current.Reset()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}
	return stmts
}

// Migrate applies the embedded migrations that are not yet recorded in the
// migrations table.
func (db *DB) Migrate(ctx context.Context) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}
	return db.ApplyMigrations(ctx, migrations)
}

// ApplyMigrations applies migrations in id order, each in its own
// transaction, recording every applied migration in the migrations table.
func (db *DB) ApplyMigrations(ctx context.Context, migrations []Migration) error {
	_, err := db.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS migrations (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		up   TEXT NOT NULL,
		down TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan migration id: %w", err)
		}
		applied[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return applied, nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.ID, err)
	}
	defer tx.Rollback()

	for _, stmt := range SplitStatements(m.Up) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d-%s failed: %w", m.ID, m.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO migrations (id, name, up, down) VALUES (?, ?, ?, ?)`,
		m.ID, m.Name, m.Up, m.Down); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.ID, err)
	}
	return nil
}
