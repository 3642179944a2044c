// Package store persists submitted grievances to Postgres.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Submission is one recorded grievance at the moment the citizen reported
// submitting the form.
type Submission struct {
	ID         uuid.UUID         `json:"id"`
	Category   string            `json:"category"`
	Language   string            `json:"language"`
	Fields     map[string]string `json:"fields"`
	SubmitTime time.Time         `json:"submit_time"`
}

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// SaveSubmission records a grievance. The fields map is stored as jsonb so
// category schemas can evolve without migrations.
func (s *Store) SaveSubmission(ctx context.Context, sub Submission) error {
	fields, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, category, language, fields, submit_time)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Category, sub.Language, fields, sub.SubmitTime)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// RecentSubmissions returns the newest submissions, most recent first.
func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, category, language, fields, submit_time
		 FROM submissions
		 ORDER BY submit_time DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var (
			sub    Submission
			fields []byte
		)
		if err := rows.Scan(&sub.ID, &sub.Category, &sub.Language, &fields, &sub.SubmitTime); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal(fields, &sub.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
