package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chartscraper/internal/domain"
)

// PostgresStore handles interactions with the PostgreSQL database.
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

// SaveJobStatus upserts the state of a scrape job.
func (s *PostgresStore) SaveJobStatus(ctx context.Context, key, status, failReason string, rows int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO scrape_jobs (job_key, status, fail_reason, row_count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (job_key) DO UPDATE SET
		   status = EXCLUDED.status, fail_reason = EXCLUDED.fail_reason,
		   row_count = EXCLUDED.row_count, updated_at = NOW()`,
		key, status, failReason, rows,
	)
	return err
}

// GetJobStatus retrieves the current state of a scrape job.
func (s *PostgresStore) GetJobStatus(ctx context.Context, key string) (*domain.JobStatusResponse, error) {
	var status domain.JobStatusResponse
	err := s.db.QueryRow(ctx,
		`SELECT job_key, status, fail_reason, row_count, updated_at FROM scrape_jobs WHERE job_key = $1`,
		key,
	).Scan(&status.Key, &status.Status, &status.FailReason, &status.Rows, &status.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("not_found")
	}
	return &status, err
}

// SaveRangeRows batch-inserts the rectangular range table. Null markets are
// stored as SQL NULL, keeping "no data" distinct from zero streams.
func (s *PostgresStore) SaveRangeRows(ctx context.Context, jobKey string, table *domain.RangeTable) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range table.Rows {
		for _, market := range table.Markets {
			batch.Queue(
				`INSERT INTO chart_streams (job_key, chart_date, market, streams)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (job_key, chart_date, market) DO UPDATE SET streams = EXCLUDED.streams`,
				jobKey, row.ChartDate, market, row.Streams[market],
			)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SaveTrackRows batch-inserts a single-track history, one row per
// (date, market) observation.
func (s *PostgresStore) SaveTrackRows(ctx context.Context, history *domain.TrackHistory) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range history.Batch.Rows {
		aggregate := row.Kind == domain.RowAggregate
		for market, streams := range row.Streams {
			batch.Queue(
				`INSERT INTO track_streams (track_id, song_name, artist_name, chart_date, market, streams, aggregate)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (track_id, chart_date, market) DO UPDATE SET streams = EXCLUDED.streams`,
				history.TrackID, history.SongName, history.ArtistName,
				row.Date, market, streams, aggregate,
			)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
