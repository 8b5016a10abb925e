package storage

import (
	"context"
	"fmt"
	"time"

	"finder/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists resolution history: one row per answered query.
// The store is optional; resolution never blocks on it.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// SaveResolution records how a query was answered.
func (s *PostgresStore) SaveResolution(ctx context.Context, q domain.Query, res *domain.Resolution, took time.Duration) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO resolutions (term, category, max_price, result_limit, source, source_url, from_cache, result_count, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.Term, q.Category, q.MaxPrice, q.Limit,
		res.Source, res.SourceURL, res.FromCache, len(res.Products), took.Milliseconds(),
	)
	return err
}

// RecentResolutions returns the latest history rows, newest first.
func (s *PostgresStore) RecentResolutions(ctx context.Context, limit int) ([]HistoryRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT term, source, source_url, from_cache, result_count, duration_ms, created_at
		 FROM resolutions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		if err := rows.Scan(&r.Term, &r.Source, &r.SourceURL, &r.FromCache, &r.ResultCount, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HistoryRow is one recorded resolution.
type HistoryRow struct {
	Term        string    `json:"term"`
	Source      string    `json:"source"`
	SourceURL   string    `json:"source_url,omitempty"`
	FromCache   bool      `json:"from_cache"`
	ResultCount int       `json:"result_count"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
