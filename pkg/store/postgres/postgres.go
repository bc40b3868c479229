// Package postgres stores explored points as plain latitude/longitude rows.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/1F47E/geo-explored/pkg/models"
	_ "github.com/lib/pq"
)

const table = "explored_points"

type Store struct {
	db *sql.DB
}

// New opens a connection pool and makes sure the schema exists
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing handle without touching the schema
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the table and the coordinate index
func (s *Store) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id          BIGSERIAL PRIMARY KEY,
			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL,
			accuracy    DOUBLE PRECISION,
			recorded_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_` + table + `_lon_lat ON ` + table + ` (longitude, latitude);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, p models.GeoPoint) error {
	accuracy, recordedAt := nullable(p)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (latitude, longitude, accuracy, recorded_at) VALUES ($1, $2, $3, $4)`,
		p.Lat, p.Lon, accuracy, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert point: %w", err)
	}
	return nil
}

// InsertBatch writes all points in one transaction so a failed flush can be
// retried without leaving half a batch behind
func (s *Store) InsertBatch(ctx context.Context, points []models.GeoPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+table+` (latitude, longitude, accuracy, recorded_at) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		accuracy, recordedAt := nullable(p)
		if _, err := stmt.ExecContext(ctx, p.Lat, p.Lon, accuracy, recordedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert point (%f, %f): %w", p.Lat, p.Lon, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// SelectAll returns every row. On a scan error the rows read so far are
// returned together with the error.
func (s *Store) SelectAll(ctx context.Context) ([]models.GeoPoint, error) {
	return s.query(ctx,
		`SELECT latitude, longitude, accuracy, recorded_at FROM `+table+` ORDER BY id`)
}

// SelectInBox filters directly on the coordinate columns
func (s *Store) SelectInBox(ctx context.Context, box models.BoundingBox) ([]models.GeoPoint, error) {
	return s.query(ctx, `
		SELECT latitude, longitude, accuracy, recorded_at
		FROM `+table+`
		WHERE longitude BETWEEN $1 AND $2 AND latitude BETWEEN $3 AND $4
		ORDER BY id
	`, box.West(), box.East(), box.South(), box.North())
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]models.GeoPoint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.GeoPoint
	for rows.Next() {
		var (
			p          models.GeoPoint
			accuracy   sql.NullFloat64
			recordedAt sql.NullTime
		)
		if err := rows.Scan(&p.Lat, &p.Lon, &accuracy, &recordedAt); err != nil {
			return results, fmt.Errorf("failed to scan row: %w", err)
		}
		p.Accuracy = accuracy.Float64
		if recordedAt.Valid {
			p.RecordedAt = recordedAt.Time
		}
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return results, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE `+table); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Count returns the number of rows
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(p models.GeoPoint) (sql.NullFloat64, sql.NullTime) {
	return sql.NullFloat64{Float64: p.Accuracy, Valid: p.Accuracy > 0},
		sql.NullTime{Time: p.RecordedAt, Valid: !p.RecordedAt.IsZero()}
}
