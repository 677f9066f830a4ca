// Package store persists tool embeddings in Postgres with the pgvector
// extension and serves cosine-similarity queries over them.
//
// DESIGN: One row per (tool_uuid, namespace_uuid, model_name). The stored
// embedding_text is exactly the text submitted to the embedding model; a
// byte-for-byte mismatch against the current canonical text is the sole
// definition of staleness.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

//go:embed schema.sql
var schemaTemplate string

// Row is one persisted embedding.
type Row struct {
	ToolUUID      uuid.UUID
	NamespaceUUID uuid.UUID
	ModelName     string
	Dimensions    int
	Embedding     []float32
	Text          string
}

// SimilarTool is one similarity query result.
type SimilarTool struct {
	ToolUUID   uuid.UUID
	Text       string
	Similarity float64
}

// RequestedEmbedding pairs a tool with its current canonical text for the
// staleness check.
type RequestedEmbedding struct {
	ToolUUID uuid.UUID
	Text     string
}

// Repository provides embedding persistence over a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool with pgvector types registered on every
// connection.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return pool, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tool_embeddings table and indexes for the given
// vector dimensionality, and backfills the endpoints.search_mode column
// when a catalogue store shares the database.
func (r *Repository) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("store: invalid embedding dimensions %d", dimensions)
	}
	schema := fmt.Sprintf(schemaTemplate, dimensions)
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}

	// endpoints is owned by the catalogue store; only patch it when present.
	const searchModeMigration = `
DO $$
BEGIN
    IF to_regclass('endpoints') IS NOT NULL THEN
        ALTER TABLE endpoints
            ADD COLUMN IF NOT EXISTS search_mode TEXT NOT NULL DEFAULT 'keyword';
        IF NOT EXISTS (
            SELECT 1 FROM pg_constraint WHERE conname = 'endpoints_search_mode_check'
        ) THEN
            ALTER TABLE endpoints
                ADD CONSTRAINT endpoints_search_mode_check
                CHECK (search_mode IN ('keyword', 'embeddings'));
        END IF;
    END IF;
END
$$;`
	if _, err := r.pool.Exec(ctx, searchModeMigration); err != nil {
		return fmt.Errorf("store: search_mode migration: %w", err)
	}
	return nil
}

// Upsert inserts rows one by one, updating embedding, text, dimensions and
// updated_at on conflict of the unique tuple. Per-row writes keep partial
// progress usable: an interrupted reconciliation is completed by the next
// one because the staleness check is idempotent.
func (r *Repository) Upsert(ctx context.Context, rows []Row) error {
	const q = `
INSERT INTO tool_embeddings
    (tool_uuid, namespace_uuid, model_name, embedding_dimensions, embedding, embedding_text)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (tool_uuid, namespace_uuid, model_name) DO UPDATE SET
    embedding = EXCLUDED.embedding,
    embedding_text = EXCLUDED.embedding_text,
    embedding_dimensions = EXCLUDED.embedding_dimensions,
    updated_at = now()`

	for _, row := range rows {
		_, err := r.pool.Exec(ctx, q,
			row.ToolUUID, row.NamespaceUUID, row.ModelName,
			row.Dimensions, pgvector.NewVector(row.Embedding), row.Text)
		if err != nil {
			return fmt.Errorf("store: upsert embedding for tool %s: %w", row.ToolUUID, err)
		}
	}
	return nil
}

// FindSimilar returns the limit nearest tools by cosine distance for one
// namespace and model. Tie order among equal distances is whatever
// Postgres returns; callers must not depend on it.
func (r *Repository) FindSimilar(
	ctx context.Context, namespaceUUID uuid.UUID, modelName string, queryVector []float32, limit int,
) ([]SimilarTool, error) {
	const q = `
SELECT tool_uuid, embedding_text, 1 - (embedding <=> $3) AS similarity
FROM tool_embeddings
WHERE namespace_uuid = $1 AND model_name = $2
ORDER BY embedding <=> $3
LIMIT $4`

	rows, err := r.pool.Query(ctx, q, namespaceUUID, modelName, pgvector.NewVector(queryVector), limit)
	if err != nil {
		return nil, fmt.Errorf("store: similarity query: %w", err)
	}
	defer rows.Close()

	var results []SimilarTool
	for rows.Next() {
		var s SimilarTool
		if err := rows.Scan(&s.ToolUUID, &s.Text, &s.Similarity); err != nil {
			return nil, fmt.Errorf("store: scan similarity row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: similarity rows: %w", err)
	}
	return results, nil
}

// ToolsNeedingEmbeddings returns the tool UUIDs among requested that have
// no stored row, or whose stored embedding_text differs byte-for-byte from
// the requested text.
func (r *Repository) ToolsNeedingEmbeddings(
	ctx context.Context, requested []RequestedEmbedding, namespaceUUID uuid.UUID, modelName string,
) ([]uuid.UUID, error) {
	if len(requested) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(requested))
	for i, req := range requested {
		ids[i] = req.ToolUUID
	}

	const q = `
SELECT tool_uuid, embedding_text
FROM tool_embeddings
WHERE namespace_uuid = $1 AND model_name = $2 AND tool_uuid = ANY($3)`

	rows, err := r.pool.Query(ctx, q, namespaceUUID, modelName, ids)
	if err != nil {
		return nil, fmt.Errorf("store: staleness query: %w", err)
	}
	defer rows.Close()

	stored := make(map[uuid.UUID]string, len(requested))
	for rows.Next() {
		var id uuid.UUID
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("store: scan staleness row: %w", err)
		}
		stored[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: staleness rows: %w", err)
	}

	var needed []uuid.UUID
	for _, req := range requested {
		text, ok := stored[req.ToolUUID]
		if !ok || text != req.Text {
			needed = append(needed, req.ToolUUID)
		}
	}
	return needed, nil
}

// DeleteByToolUUIDs removes all embeddings for the given tools across
// namespaces and models.
func (r *Repository) DeleteByToolUUIDs(ctx context.Context, toolUUIDs []uuid.UUID) error {
	if len(toolUUIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM tool_embeddings WHERE tool_uuid = ANY($1)`, toolUUIDs)
	if err != nil {
		return fmt.Errorf("store: delete by tool uuids: %w", err)
	}
	return nil
}

// DeleteByNamespace removes a namespace's embeddings. An empty modelName
// deletes across all models.
func (r *Repository) DeleteByNamespace(ctx context.Context, namespaceUUID uuid.UUID, modelName string) error {
	var err error
	if strings.TrimSpace(modelName) == "" {
		_, err = r.pool.Exec(ctx,
			`DELETE FROM tool_embeddings WHERE namespace_uuid = $1`, namespaceUUID)
	} else {
		_, err = r.pool.Exec(ctx,
			`DELETE FROM tool_embeddings WHERE namespace_uuid = $1 AND model_name = $2`,
			namespaceUUID, modelName)
	}
	if err != nil {
		return fmt.Errorf("store: delete by namespace: %w", err)
	}
	return nil
}

// DeleteByToolAndNamespace removes one tool's embeddings within a namespace.
func (r *Repository) DeleteByToolAndNamespace(ctx context.Context, toolUUID, namespaceUUID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM tool_embeddings WHERE tool_uuid = $1 AND namespace_uuid = $2`,
		toolUUID, namespaceUUID)
	if err != nil {
		return fmt.Errorf("store: delete by tool and namespace: %w", err)
	}
	return nil
}

// CountByNamespace returns how many embeddings a namespace holds.
func (r *Repository) CountByNamespace(ctx context.Context, namespaceUUID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM tool_embeddings WHERE namespace_uuid = $1`, namespaceUUID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count by namespace: %w", err)
	}
	return count, nil
}

// HasEmbedding reports whether a row exists for the tuple.
func (r *Repository) HasEmbedding(ctx context.Context, toolUUID, namespaceUUID uuid.UUID, modelName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM tool_embeddings
    WHERE tool_uuid = $1 AND namespace_uuid = $2 AND model_name = $3
)`, toolUUID, namespaceUUID, modelName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: existence check: %w", err)
	}
	return exists, nil
}
