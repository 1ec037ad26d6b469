// Package store persists the three tables in a relational database and
// serves them back as raw table sources. SQLite (modernc.org/sqlite) and
// PostgreSQL (pgx) are supported.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/logger"
)

// Driver names a supported database.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts sqlite and postgres (or pgx/postgresql).
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3", "":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported db driver %q (use sqlite or postgres)", s)
}

// Store is a handle on the database holding the three tables.
type Store struct {
	db     *sql.DB
	driver Driver
	log    *logger.Logger
}

// Open connects to the database. For SQLite the DSN is a file path or
// ":memory:"; for PostgreSQL it is a pgx connection string.
func Open(ctx context.Context, driver Driver, dsn string, log *logger.Logger) (*Store, error) {
	log = logger.OrNop(log)
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("open %s: empty dsn", driver)
	}
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite"
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases shared across calls
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	log.Debug("store opened", "driver", string(driver), "dsn", dsn)
	return &Store{db: db, driver: driver, log: log}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() Driver { return s.driver }

// persisted returns the columns stored in the database; optional columns
// such as the video platform tag are not part of the relational schema.
func persisted(sc dataset.Schema) []dataset.Column {
	var out []dataset.Column
	for _, c := range sc.Columns {
		if !c.Optional {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) columnType(k dataset.Kind) string {
	switch k {
	case dataset.KindInt:
		if s.driver == DriverPostgres {
			return "BIGINT"
		}
		return "INTEGER"
	case dataset.KindFloat:
		if s.driver == DriverPostgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	default:
		return "TEXT"
	}
}

// createStatement renders CREATE TABLE for one schema.
func (s *Store) createStatement(sc dataset.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", sc.Table)
	for i, c := range persisted(sc) {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "\t%s %s", c.Name, s.columnType(c.Kind))
		if c.Name == sc.Key {
			b.WriteString(" PRIMARY KEY")
		} else {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// InitSchema creates the three tables if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, sc := range dataset.Schemas() {
		if _, err := s.db.ExecContext(ctx, s.createStatement(sc)); err != nil {
			return fmt.Errorf("create %s: %w", sc.Table, err)
		}
	}
	return nil
}

func (s *Store) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		if s.driver == DriverPostgres {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}

func (s *Store) insertStatement(sc dataset.Schema) string {
	cols := persisted(sc)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", sc.Table, strings.Join(names, ", "), s.placeholders(len(cols)))
}

// Replace overwrites the three tables with the contents of ds in a single
// transaction.
func (s *Store) Replace(ctx context.Context, ds *dataset.Dataset) error {
	if err := s.InitSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// children first so a future foreign key would not block the delete
	for _, table := range []string{dataset.TableVideos, dataset.TableCreators, dataset.TablePlatforms} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	creators := ds.Creators()
	crows := make([][]any, len(creators))
	for i, c := range creators {
		crows[i] = []any{c.CreatorID, c.CreatorName, c.Niche, c.Followers}
	}
	platforms := ds.Platforms()
	prows := make([][]any, len(platforms))
	for i, p := range platforms {
		prows[i] = []any{p.Platform, p.DailyUsersMillions, p.AvgSessionTimeMin, p.AlgorithmType}
	}
	videos := ds.Videos()
	vrows := make([][]any, len(videos))
	for i, v := range videos {
		vrows[i] = []any{v.VideoID, v.CreatorID, v.FormatType, v.DurationSec, v.Views, v.Likes,
			v.Comments, v.Shares, v.WatchTime, v.FullViews, v.HookWatchRate}
	}

	for _, batch := range []struct {
		schema dataset.Schema
		rows   [][]any
	}{
		{dataset.CreatorSchema, crows},
		{dataset.PlatformSchema, prows},
		{dataset.VideoSchema, vrows},
	} {
		if err := s.insertAll(ctx, tx, batch.schema, batch.rows); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Info("tables replaced", "creators", len(crows), "platforms", len(prows), "videos", len(vrows))
	return nil
}

func (s *Store) insertAll(ctx context.Context, tx *sql.Tx, sc dataset.Schema, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, s.insertStatement(sc))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", sc.Table, err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return fmt.Errorf("insert into %s (%v): %w", sc.Table, r[0], err)
		}
	}
	return nil
}

// Counts returns the number of rows per table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, 3)
	for _, sc := range dataset.Schemas() {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sc.Table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", sc.Table, err)
		}
		out[sc.Table] = n
	}
	return out, nil
}
