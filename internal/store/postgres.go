package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/catalog"
	"github.com/sells-group/estimate-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which is what the tests run against.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests to inject a mock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	doc         JSONB NOT NULL,
	parts       INTEGER NOT NULL DEFAULT 0,
	grand_total DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS catalog_items (
	code        TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	category    TEXT,
	unit        TEXT,
	rate        DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_estimates_name ON estimates(name);
CREATE INDEX IF NOT EXISTS idx_estimates_updated_at ON estimates(updated_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveEstimate(ctx context.Context, tree *model.EstimateTree) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	doc, err := json.Marshal(tree)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal estimate")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO estimates (id, name, doc, parts, grand_total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, tree.Name, doc, len(tree.Parts), tree.General.GrandTotal, now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert estimate")
	}
	return id, nil
}

func (s *PostgresStore) UpdateEstimate(ctx context.Context, id string, tree *model.EstimateTree) error {
	doc, err := json.Marshal(tree)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal estimate")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE estimates SET name = $1, doc = $2, parts = $3, grand_total = $4, updated_at = $5 WHERE id = $6`,
		tree.Name, doc, len(tree.Parts), tree.General.GrandTotal, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update estimate %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "estimate %s", id)
	}
	return nil
}

func (s *PostgresStore) GetEstimate(ctx context.Context, id string) (*model.EstimateTree, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM estimates WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(model.ErrNotFound, "postgres: estimate %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get estimate %s", id)
	}

	var tree model.EstimateTree
	if err := json.Unmarshal(doc, &tree); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal estimate")
	}
	return &tree, nil
}

func (s *PostgresStore) ListEstimates(ctx context.Context, filter ListFilter) ([]EstimateSummary, error) {
	query := `SELECT id, name, parts, grand_total, updated_at FROM estimates WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Name+"%")
		argIdx++
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list estimates")
	}
	defer rows.Close()

	var summaries []EstimateSummary
	for rows.Next() {
		var e EstimateSummary
		if err := rows.Scan(&e.ID, &e.Name, &e.Parts, &e.GrandTotal, &e.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan estimate")
		}
		summaries = append(summaries, e)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list estimates iterate")
}

func (s *PostgresStore) DeleteEstimate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM estimates WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete estimate %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "estimate %s", id)
	}
	return nil
}

// SaveCatalog replaces the stored catalog wholesale, same as the SQLite
// implementation.
func (s *PostgresStore) SaveCatalog(ctx context.Context, items []catalog.Item) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM catalog_items`); err != nil {
		return eris.Wrap(err, "postgres: clear catalog")
	}
	for _, item := range items {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO catalog_items (code, description, category, unit, rate) VALUES ($1, $2, $3, $4, $5)`,
			item.Code, item.Description, item.Category, item.Unit, item.Rate,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert catalog item %s", item.Code)
		}
	}
	return nil
}

func (s *PostgresStore) LoadCatalog(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, description, category, unit, rate FROM catalog_items ORDER BY code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load catalog")
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var item catalog.Item
		var category, unit *string
		if err := rows.Scan(&item.Code, &item.Description, &category, &unit, &item.Rate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan catalog item")
		}
		if category != nil {
			item.Category = *category
		}
		if unit != nil {
			item.Unit = *unit
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: load catalog iterate")
}
