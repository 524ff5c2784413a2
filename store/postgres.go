package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benhall-io/squish/compress"
	"github.com/benhall-io/squish/document"
)

// Postgres implements Store using PostgreSQL with pgx. The clone
// document itself is kept in the row, so a clone survives the source
// machine.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL store on an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the squish tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS squish_clones (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			source TEXT NOT NULL,
			source_path TEXT NOT NULL,
			content BYTEA NOT NULL,
			stats JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS squish_clones_source_id_idx
			ON squish_clones (source_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS squish_compression_events (
			id UUID PRIMARY KEY,
			clone_id TEXT NOT NULL REFERENCES squish_clones(id) ON DELETE CASCADE,
			original_tokens INT NOT NULL,
			compressed_tokens INT NOT NULL,
			messages_compressed INT NOT NULL,
			messages_skipped INT NOT NULL,
			messages_failed INT NOT NULL,
			reduction_percent INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate squish schema: %w", err)
	}
	return nil
}

// SaveClone implements Store. The clone row and its compression event
// are written in one transaction.
func (s *Postgres) SaveClone(ctx context.Context, clone *Clone, doc *document.Document) error {
	statsJSON, err := json.Marshal(clone.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save clone: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO squish_clones (id, source_id, source, source_path, content, stats, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, clone.ID, clone.SourceID, string(clone.Source), clone.SourcePath, doc.Bytes(), statsJSON)
	if err != nil {
		return fmt.Errorf("save clone: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO squish_compression_events
			(id, clone_id, original_tokens, compressed_tokens,
			 messages_compressed, messages_skipped, messages_failed,
			 reduction_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, uuid.New().String(), clone.ID,
		clone.Stats.OriginalTokens, clone.Stats.CompressedTokens,
		clone.Stats.MessagesCompressed, clone.Stats.MessagesSkipped,
		clone.Stats.MessagesFailed, clone.Stats.ReductionPercent)
	if err != nil {
		return fmt.Errorf("save compression event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save clone: %w", err)
	}
	return nil
}

// GetClone implements Store.
func (s *Postgres) GetClone(ctx context.Context, id string) (*Clone, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, source_id, source, source_path, stats, created_at
		FROM squish_clones
		WHERE id = $1
	`, id)

	clone, err := scanClone(row)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("get clone %s: %w", id, ErrCloneNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get clone: %w", err)
	}
	return clone, nil
}

// GetCloneDocument retrieves the stored clone document.
func (s *Postgres) GetCloneDocument(ctx context.Context, id string) (*document.Document, error) {
	var content []byte
	err := s.pool.QueryRow(ctx, `SELECT content FROM squish_clones WHERE id = $1`, id).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("get clone document %s: %w", id, ErrCloneNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get clone document: %w", err)
	}
	return document.Read(bytes.NewReader(content))
}

// ListClones implements Store.
func (s *Postgres) ListClones(ctx context.Context, sourceID string) ([]*Clone, error) {
	query := `
		SELECT id, source_id, source, source_path, stats, created_at
		FROM squish_clones
	`
	var args []any
	if sourceID != "" {
		query += ` WHERE source_id = $1`
		args = append(args, sourceID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clones: %w", err)
	}
	defer rows.Close()

	var clones []*Clone
	for rows.Next() {
		clone, err := scanClone(rows)
		if err != nil {
			return nil, fmt.Errorf("list clones: %w", err)
		}
		clones = append(clones, clone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clones: %w", err)
	}
	return clones, nil
}

func scanClone(row pgx.Row) (*Clone, error) {
	var clone Clone
	var source string
	var statsJSON []byte
	err := row.Scan(&clone.ID, &clone.SourceID, &source, &clone.SourcePath, &statsJSON, &clone.CreatedAt)
	if err != nil {
		return nil, err
	}
	clone.Source = document.Source(source)
	var stats compress.Stats
	if err := json.Unmarshal(statsJSON, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	clone.Stats = stats
	return &clone, nil
}
