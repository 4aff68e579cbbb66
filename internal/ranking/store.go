package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned when an archived run does not exist.
var ErrRunNotFound = errors.New("ranking run not found")

// Run is an archived aggregation run without its ranking body
type Run struct {
	ID          int64     `json:"id,string"`
	GeneratedAt time.Time `json:"generatedAt"`
	Metadata    Metadata  `json:"metadata"`
}

// Store archives ranking artifacts in Postgres
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveRun archives art under id. Saving the same id twice is a no-op.
func (s *Store) SaveRun(ctx context.Context, id int64, art *Artifact) error {
	meta, err := json.Marshal(art.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	body, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ranking_runs (id, generated_at, metadata, artifact)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, id, art.Metadata.GeneratedAt, meta, body)
	if err != nil {
		return fmt.Errorf("failed to archive run %d: %w", id, err)
	}
	return nil
}

// ListRuns returns the newest runs first, at most limit (1..100, default 20).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, generated_at, metadata
		FROM ranking_runs
		ORDER BY generated_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run  Run
			meta []byte
		)
		if err := rows.Scan(&run.ID, &run.GeneratedAt, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(meta, &run.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode run %d metadata: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a full archived artifact.
func (s *Store) GetRun(ctx context.Context, id int64) (*Artifact, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT artifact FROM ranking_runs WHERE id = $1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}

	var art Artifact
	if err := json.Unmarshal(body, &art); err != nil {
		return nil, fmt.Errorf("failed to decode run %d: %w", id, err)
	}
	return &art, nil
}
