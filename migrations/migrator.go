// Package migrations owns the database schema. Versioned SQL files are
// embedded in the binary and applied in order, each exactly once, with the
// outcome recorded in the schema_migrations ledger.
package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedded embed.FS

// advisoryLockID serializes concurrent migrators on the same database.
const advisoryLockID int64 = 7_246_134_511

var (
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	ErrDuplicateVersion = errors.New("duplicate migration version")
	ErrInvalidName      = errors.New("invalid migration file name")
	ErrOutOfOrder       = errors.New("pending migration older than applied version")
)

var fileNamePattern = regexp.MustCompile(`^V(\d+)__([A-Za-z0-9_]+)\.sql$`)

// Migration is one versioned SQL script
type Migration struct {
	Version     int64
	Description string
	Name        string
	SQL         string
	Checksum    string
}

// Status describes a migration and whether it has been applied
type Status struct {
	Version     int64      `json:"version"`
	Description string     `json:"description"`
	Checksum    string     `json:"checksum"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
}

type appliedRow struct {
	checksum  string
	appliedAt time.Time
}

// Migrator applies migrations against a PostgreSQL database
type Migrator struct {
	db     *sql.DB
	source fs.FS
	logger *zap.Logger
}

// New returns a Migrator over the embedded migrations.
func New(db *sql.DB, logger *zap.Logger) *Migrator {
	sub, _ := fs.Sub(embedded, "sql")
	return NewWithSource(db, sub, logger)
}

// NewWithSource returns a Migrator reading V<n>__<desc>.sql files from the root of source.
func NewWithSource(db *sql.DB, source fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, source: source, logger: logger}
}

// Load reads and orders the migrations found at the root of source.
func Load(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[int64]string)
	out := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidName, e.Name())
		}
		version, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidName, e.Name())
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateVersion, version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(source, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(body)
		out = append(out, Migration{
			Version:     version,
			Description: strings.ReplaceAll(m[2], "_", " "),
			Name:        e.Name(),
			SQL:         string(body),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

const createLedger = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	description TEXT NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectApplied = `SELECT version, checksum, applied_at FROM schema_migrations ORDER BY version`

const insertApplied = `INSERT INTO schema_migrations (version, description, checksum, applied_at) VALUES ($1, $2, $3, $4)`

// Migrate applies every pending migration and returns how many were applied.
// Running it against an up-to-date schema is a no-op.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	migrations, err := Load(m.source)
	if err != nil {
		return 0, err
	}

	conn, err := m.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		return 0, fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			m.logger.Warn("failed to release migration lock", zap.Error(err))
		}
	}()

	if _, err := conn.ExecContext(ctx, createLedger); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := loadApplied(ctx, conn)
	if err != nil {
		return 0, err
	}

	pending, err := plan(migrations, applied)
	if err != nil {
		return 0, err
	}
	for version := range applied {
		if !containsVersion(migrations, version) {
			m.logger.Warn("applied migration not found locally", zap.Int64("version", version))
		}
	}

	for i, mig := range pending {
		start := time.Now()
		if err := apply(ctx, conn, mig); err != nil {
			m.logger.Error("migration failed",
				zap.Int64("version", mig.Version),
				zap.String("name", mig.Name),
				zap.Error(err))
			return i, err
		}
		m.logger.Info("migration applied",
			zap.Int64("version", mig.Version),
			zap.String("description", mig.Description),
			zap.Duration("duration", time.Since(start)))
	}

	if len(pending) == 0 {
		m.logger.Info("schema up to date", zap.Int("migrations", len(migrations)))
	}
	return len(pending), nil
}

// Status reports every known migration and whether it has been applied.
// A missing ledger table means nothing has been applied yet.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	migrations, err := Load(m.source)
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := m.db.QueryRowContext(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check schema_migrations: %w", err)
	}

	applied := map[int64]appliedRow{}
	if exists {
		if applied, err = loadApplied(ctx, m.db); err != nil {
			return nil, err
		}
	}

	out := make([]Status, 0, len(migrations))
	for _, mig := range migrations {
		st := Status{Version: mig.Version, Description: mig.Description, Checksum: mig.Checksum}
		if row, ok := applied[mig.Version]; ok {
			at := row.appliedAt.UTC()
			st.Applied = true
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// Pending returns the number of migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range status {
		if !s.Applied {
			n++
		}
	}
	return n, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func loadApplied(ctx context.Context, q queryer) (map[int64]appliedRow, error) {
	rows, err := q.QueryContext(ctx, selectApplied)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]appliedRow)
	for rows.Next() {
		var version int64
		var row appliedRow
		if err := rows.Scan(&version, &row.checksum, &row.appliedAt); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		out[version] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema_migrations: %w", err)
	}
	return out, nil
}

// plan validates applied checksums and returns the migrations still to run.
func plan(migrations []Migration, applied map[int64]appliedRow) ([]Migration, error) {
	var maxApplied int64
	for v := range applied {
		if v > maxApplied {
			maxApplied = v
		}
	}

	var pending []Migration
	for _, mig := range migrations {
		row, ok := applied[mig.Version]
		if ok {
			if row.checksum != mig.Checksum {
				return nil, fmt.Errorf("%w: version %d (%s)", ErrChecksumMismatch, mig.Version, mig.Name)
			}
			continue
		}
		if mig.Version < maxApplied {
			return nil, fmt.Errorf("%w: version %d < %d", ErrOutOfOrder, mig.Version, maxApplied)
		}
		pending = append(pending, mig)
	}
	return pending, nil
}

func containsVersion(migrations []Migration, version int64) bool {
	for _, m := range migrations {
		if m.Version == version {
			return true
		}
	}
	return false
}

// apply runs one migration and its ledger row in a single transaction.
func apply(ctx context.Context, conn *sql.Conn, mig Migration) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", mig.Version, err)
	}

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, insertApplied, mig.Version, mig.Description, mig.Checksum, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", mig.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", mig.Version, err)
	}
	return nil
}
