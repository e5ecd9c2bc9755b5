// internal/adapter/storage/postgres_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"safetails/internal/config"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

// SQLSTATE codes raised when PostGIS or the location column is unusable
var pgSpatialCodes = map[string]bool{
	"42883": true, // undefined_function
	"42704": true, // undefined_object
}

// PostgresStore implements proximity queries over a PostGIS table holding
// JSON documents next to a geography column
type PostgresStore[T record.Document] struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresStore creates a store over the named table
func NewPostgresStore[T record.Document](db *pgxpool.Pool, table string) *PostgresStore[T] {
	return &PostgresStore[T]{
		db:    db,
		table: table,
	}
}

// FindWithinRadius returns documents inside the circle matching the criteria
func (s *PostgresStore[T]) FindWithinRadius(ctx context.Context, circle proximity.Circle, criteria proximity.Criteria) ([]T, int64, error) {
	return s.find(ctx, &circle, criteria)
}

// Find returns documents matching the criteria
func (s *PostgresStore[T]) Find(ctx context.Context, criteria proximity.Criteria) ([]T, int64, error) {
	return s.find(ctx, nil, criteria)
}

func (s *PostgresStore[T]) find(ctx context.Context, circle *proximity.Circle, criteria proximity.Criteria) ([]T, int64, error) {
	q, err := buildPostgresQuery(s.table, circle, criteria)
	if err != nil {
		return nil, 0, fmt.Errorf("error building %s query: %w", s.table, err)
	}

	var total int64
	if err := s.db.QueryRow(ctx, q.count, q.countArgs...).Scan(&total); err != nil {
		return nil, 0, classifyPostgresError(fmt.Errorf("error counting %s: %w", s.table, err))
	}

	rows, err := s.db.Query(ctx, q.data, q.dataArgs...)
	if err != nil {
		return nil, 0, classifyPostgresError(fmt.Errorf("error querying %s: %w", s.table, err))
	}
	defer rows.Close()

	results := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, 0, fmt.Errorf("error scanning %s row: %w", s.table, err)
		}

		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, 0, fmt.Errorf("error decoding %s row: %w", s.table, err)
		}
		results = append(results, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, classifyPostgresError(fmt.Errorf("error iterating %s rows: %w", s.table, err))
	}

	return results, total, nil
}

// Insert stores documents, replacing any with the same ID
func (s *PostgresStore[T]) Insert(ctx context.Context, docs ...T) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		ON CONFLICT (id) DO UPDATE
		SET doc = EXCLUDED.doc, location = EXCLUDED.location
	`, s.table)

	for _, doc := range docs {
		raw, err := json.Marshal(cloneDocument(doc))
		if err != nil {
			return fmt.Errorf("error marshaling %s %s: %w", s.table, doc.DocID(), err)
		}

		// Unset points are stored without a location
		var lng, lat *float64
		if p := doc.Point(); !p.IsUnset() {
			lng, lat = &p.Longitude, &p.Latitude
		}

		if _, err := s.db.Exec(ctx, query, doc.DocID(), raw, lng, lat); err != nil {
			return fmt.Errorf("error saving %s %s: %w", s.table, doc.DocID(), err)
		}
	}

	return nil
}

// classifyPostgresError marks PostGIS failures so callers can fall back
func classifyPostgresError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgSpatialCodes[pgErr.Code] {
		return &proximity.SpatialError{Err: err}
	}
	return err
}

// ConnectPostgres opens and verifies a connection pool
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresStores builds one store per table
func NewPostgresStores(db *pgxpool.Pool) (*PostgresStore[*record.Alert], *PostgresStore[*record.Post], *PostgresStore[*record.Vet]) {
	return NewPostgresStore[*record.Alert](db, CollectionAlerts),
		NewPostgresStore[*record.Post](db, CollectionPosts),
		NewPostgresStore[*record.Vet](db, CollectionVets)
}

// postgresSchema returns the DDL creating a collection table and its indexes
func postgresSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			location GEOGRAPHY(Point, 4326)
		)`, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_location_idx ON %s USING GIST (location)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_doc_idx ON %s USING GIN (doc)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_created_at_idx ON %s ((doc->>'createdAt') DESC)", table, table),
	}
}

// EnsurePostgresSchema creates the PostGIS extension, tables and indexes
func EnsurePostgresSchema(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{"CREATE EXTENSION IF NOT EXISTS postgis"}
	for _, table := range []string{CollectionAlerts, CollectionPosts, CollectionVets} {
		statements = append(statements, postgresSchema(table)...)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}

	return nil
}
