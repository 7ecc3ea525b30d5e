package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/jfkfiles/internal/models"
	"github.com/xhad/jfkfiles/internal/types"
)

// ErrDimensionMismatch is returned when embeddings do not fit the table's vector column.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	SearchLimit int
	Embedder    types.Embedder // optional; rows are stored without vectors when nil
}

// VectorStore archives analysis records in PostgreSQL so earlier runs can be
// searched by similarity.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

// Match is an archived analysis returned by Similar.
type Match struct {
	RunID    string
	Analysis models.Analysis
	Distance float64
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "analyses"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			document TEXT NOT NULL,
			path TEXT,
			excerpt TEXT,
			analysis TEXT NOT NULL,
			chunks INTEGER,
			model TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Create vector index
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING hnsw (embedding vector_cosine_ops)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Store upserts every record of a run, embedding the analysis text when an
// embedder is configured.
func (vs *VectorStore) Store(ctx context.Context, runID string, records []models.Analysis) error {
	if len(records) == 0 {
		return nil
	}

	var vectors [][]float32
	if vs.config.Embedder != nil {
		texts := make([]string, len(records))
		for i, record := range records {
			texts[i] = sanitizeUTF8(record.Analysis)
		}

		var err error
		vectors, err = vs.config.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(vectors) != len(records) {
			return fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
		}
		for _, v := range vectors {
			if len(v) != vs.config.VectorDim {
				return fmt.Errorf("%w: embedder returned %d dimensions, table %s expects %d (set store.vector_dim)",
					ErrDimensionMismatch, len(v), vs.config.TableName, vs.config.VectorDim)
			}
		}
	}

	// Begin transaction
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, document, path, excerpt, analysis, chunks, model, created_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			excerpt = EXCLUDED.excerpt,
			analysis = EXCLUDED.analysis,
			chunks = EXCLUDED.chunks,
			model = EXCLUDED.model,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for i, record := range records {
		var embedding *pgvector.Vector
		if vectors != nil {
			v := pgvector.NewVector(vectors[i])
			embedding = &v
		}

		createdAt := record.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err = tx.Exec(ctx, stmt,
			runID+"/"+record.Document,
			runID,
			sanitizeUTF8(record.Document),
			sanitizeUTF8(record.Path),
			sanitizeUTF8(record.Excerpt),
			sanitizeUTF8(record.Analysis),
			record.Chunks,
			record.Model,
			createdAt,
			embedding,
		)
		if err != nil {
			return fmt.Errorf("failed to insert analysis %s: %w", record.Document, err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Similar returns the archived analyses closest to query.
func (vs *VectorStore) Similar(ctx context.Context, query string, limit int) ([]Match, error) {
	if vs.config.Embedder == nil {
		return nil, errors.New("similarity search requires an embedder")
	}
	if limit == 0 {
		limit = vs.config.SearchLimit
	}

	vectors, err := vs.config.Embedder.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}

	sql := fmt.Sprintf(`
		SELECT run_id, document, path, excerpt, analysis, chunks, model, created_at, embedding <=> $1
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, sql, pgvector.NewVector(vectors[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var path, excerpt, model *string
		var chunks *int32
		err := rows.Scan(
			&m.RunID,
			&m.Analysis.Document,
			&path,
			&excerpt,
			&m.Analysis.Analysis,
			&chunks,
			&model,
			&m.Analysis.CreatedAt,
			&m.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		m.Analysis.Path = deref(path)
		m.Analysis.Excerpt = deref(excerpt)
		m.Analysis.Model = deref(model)
		if chunks != nil {
			m.Analysis.Chunks = int(*chunks)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeUTF8 drops invalid byte sequences and NUL characters, which
// PostgreSQL rejects in text columns.
func sanitizeUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
