package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"google.golang.org/api/iterator"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	schemaMigrationsTable = "schema_migrations"
	datasetPlaceholder    = "{{DATASET_ID}}"
)

// migrationFilePattern matches 0001_name.sql.
var migrationFilePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is one versioned DDL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	// Checksum is taken before placeholder substitution, so the same file
	// applied to two datasets has the same checksum.
	Checksum string
}

// AppliedMigration is a row of <dataset>.schema_migrations.
type AppliedMigration struct {
	Version   int64               `bigquery:"version"`
	Name      string              `bigquery:"name"`
	AppliedAt time.Time           `bigquery:"applied_at"`
	Checksum  bigquery.NullString `bigquery:"checksum"`
	AppliedBy bigquery.NullString `bigquery:"applied_by"`
}

// Migrations returns the migrations shipped with the binary, for datasetID.
func Migrations(datasetID string) ([]Migration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("Migrations: %w", err)
	}
	return ReadMigrations(sub, datasetID)
}

// ReadMigrations loads every NNNN_name.sql file at the root of fsys, sorted
// by version. Files that do not match the pattern are skipped.
func ReadMigrations(fsys fs.FS, datasetID string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ReadMigrations: reading directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("ReadMigrations: version %04d used by %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("ReadMigrations: reading %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     matches[2],
			Filename: entry.Name(),
			SQL:      strings.ReplaceAll(string(content), datasetPlaceholder, datasetID),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Pending returns the migrations whose version is not in applied.
func Pending(all []Migration, applied []AppliedMigration) []Migration {
	done := make(map[int64]bool, len(applied))
	for _, am := range applied {
		done[am.Version] = true
	}
	var pending []Migration
	for _, m := range all {
		if !done[int64(m.Version)] {
			pending = append(pending, m)
		}
	}
	return pending
}

// Migrate applies the embedded migrations that have not run yet and returns
// how many were applied. appliedBy is stored with each migration.
func (r *RunRecorder) Migrate(ctx context.Context, appliedBy string) (int, error) {
	log := logger.FromContext(ctx)

	if err := r.ensureSchemaMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}

	all, err := Migrations(r.datasetID)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}
	applied, err := r.AppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}

	pending := Pending(all, applied)
	for _, m := range pending {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")

		if err := r.run(ctx, m.SQL, nil); err != nil {
			return 0, fmt.Errorf("Migrate: applying %s: %w", m.Filename, err)
		}
		if err := r.recordMigration(ctx, m, appliedBy); err != nil {
			return 0, fmt.Errorf("Migrate: recording %s: %w", m.Filename, err)
		}
	}
	return len(pending), nil
}

// AppliedMigrations lists the rows of schema_migrations, oldest first.
func (r *RunRecorder) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, r.tableName(schemaMigrationsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("AppliedMigrations: running query: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row AppliedMigration
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("AppliedMigrations: reading row: %w", err)
		}
		applied = append(applied, row)
	}
	return applied, nil
}

func (r *RunRecorder) ensureSchemaMigrationsTable(ctx context.Context) error {
	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, r.tableName(schemaMigrationsTable))

	if err := r.run(ctx, sql, nil); err != nil {
		return fmt.Errorf("ensureSchemaMigrationsTable: %w", err)
	}
	return nil
}

func (r *RunRecorder) recordMigration(ctx context.Context, m Migration, appliedBy string) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, r.tableName(schemaMigrationsTable))

	params := []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: appliedBy},
	}
	return r.run(ctx, sql, params)
}
