package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/franckalain/nutrilens/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// timeLayout is fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB interface defines the methods our database should implement
type DB interface {
	SaveAnalysisRecord(ctx context.Context, rec *models.AnalysisRecord) error
	GetRecentAnalysisRecords(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
	Close() error
}

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable WAL mode so the journal writer does not block readers
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting busy timeout: %w", err)
	}

	// Initialize database schema
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	// Read schema file
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	// Execute schema
	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	log.Debug("Database schema initialized successfully")
	return nil
}

// SaveAnalysisRecord stores the outcome of one analysis call
func (s *SQLiteDB) SaveAnalysisRecord(ctx context.Context, rec *models.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_records (
			id, session_id, source, query, food_name, calories, health_score,
			status, error, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			food_name = excluded.food_name,
			calories = excluded.calories,
			health_score = excluded.health_score,
			status = excluded.status,
			error = excluded.error,
			duration_ms = excluded.duration_ms
	`

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, rec.Source, rec.Query, rec.FoodName,
		rec.Calories, rec.HealthScore, rec.Status, rec.Error,
		rec.Duration.Milliseconds(), rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("error saving analysis record: %w", err)
	}
	return nil
}

// GetRecentAnalysisRecords retrieves the most recent journal entries, newest first
func (s *SQLiteDB) GetRecentAnalysisRecords(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	query := `
		SELECT id, session_id, source, query, food_name, calories, health_score,
			status, error, duration_ms, created_at
		FROM analysis_records
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying analysis records: %w", err)
	}
	defer rows.Close()

	results := []*models.AnalysisRecord{}
	for rows.Next() {
		var rec models.AnalysisRecord
		var durationMS int64
		var createdAt string

		err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.Source, &rec.Query, &rec.FoodName,
			&rec.Calories, &rec.HealthScore, &rec.Status, &rec.Error,
			&durationMS, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning analysis record: %w", err)
		}

		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing created_at %q: %w", createdAt, err)
		}

		results = append(results, &rec)
	}
	return results, rows.Err()
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
